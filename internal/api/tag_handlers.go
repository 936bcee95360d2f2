package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the current user's tags, name descending",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a new tag owned by the current user",
		Tags:          []string{"Tags"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Renames a tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tags/{id}",
		Summary:       "Delete tag",
		Description:   "Deletes a tag and unlinks it from recipes",
		Tags:          []string{"Tags"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  bool   `query:"assigned_only" doc:"Only tags linked to at least one recipe"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID   int64  `json:"id" doc:"Tag ID"`
	Name string `json:"name" doc:"Tag name"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// TagRequest is the request body for creating or renaming a tag.
type TagRequest struct {
	Name string `json:"name,omitempty" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Authorization string `header:"Authorization"`
	Body          TagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagIDInput addresses a single tag.
type TagIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Tag ID"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Tag ID"`
	Body          TagRequest
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.List(ctx, p.UserID(), input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, toTagResponse(t))
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, p.UserID(), service.TagRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagIDInput) (*TagOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Get(ctx, p.UserID(), input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Rename(ctx, p.UserID(), input.ID, service.TagRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: toTagResponse(tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, p.UserID(), input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
