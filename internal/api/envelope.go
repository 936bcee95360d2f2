package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/http/response"
)

// successEnvelope wraps successful response bodies.
type successEnvelope struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorEnvelope is the simple error form: {"v":1,"success":false,"error":"..."}.
type errorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// detailedErrorEnvelope carries a machine-readable code and optional details.
type detailedErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the versioned envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch e := v.(type) {
	case *APIError:
		if e.Code == "" && e.Details == nil {
			return errorEnvelope{
				Version: response.Version,
				Error:   e.Message,
			}, nil
		}
		return detailedErrorEnvelope{
			Version: response.Version,
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		}, nil
	case error:
		return errorEnvelope{
			Version: response.Version,
			Error:   e.Error(),
		}, nil
	}

	return successEnvelope{
		Version: response.Version,
		Success: true,
		Data:    v,
	}, nil
}
