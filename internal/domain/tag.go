package domain

// Tag is a user-owned label attached to recipes.
type Tag struct {
	Timestamps
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// TagFilter selects the tags a list returns.
type TagFilter struct {
	OwnerID int64
	// AssignedOnly restricts the list to tags linked to at least one of
	// the owner's recipes.
	AssignedOnly bool
}
