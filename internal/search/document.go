// Package search provides recipe full-text search backed by Bleve.
// Every document carries its owner so queries never cross user boundaries.
package search

import (
	"strconv"

	"github.com/listenupapp/recipes-server/internal/domain"
)

// RecipeDocument is the indexed form of a recipe.
//
// Tag and ingredient names are denormalized into the document so a single
// query matches "curry" whether it appears in the title, a tag or an
// ingredient.
type RecipeDocument struct {
	ID          int64    `json:"id"`
	OwnerID     int64    `json:"owner_id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// NewRecipeDocument builds the search document for a recipe.
func NewRecipeDocument(r *domain.Recipe) *RecipeDocument {
	doc := &RecipeDocument{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Title:     r.Title,
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
	for _, t := range r.Tags {
		doc.Tags = append(doc.Tags, t.Name)
	}
	for _, i := range r.Ingredients {
		doc.Ingredients = append(doc.Ingredients, i.Name)
	}
	return doc
}

// DocID returns the Bleve document identifier.
func (d *RecipeDocument) DocID() string {
	return docID(d.ID)
}

// ToMap converts the document to a map keyed by the mapping's field names.
// Owner IDs are indexed as keyword strings for exact term matching.
func (d *RecipeDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         strconv.FormatInt(d.ID, 10),
		"owner_id":   ownerTerm(d.OwnerID),
		"title":      d.Title,
		"updated_at": d.UpdatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	return m
}

func docID(recipeID int64) string {
	return docIDPrefix + strconv.FormatInt(recipeID, 10)
}

func ownerTerm(ownerID int64) string {
	return strconv.FormatInt(ownerID, 10)
}
