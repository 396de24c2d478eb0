package api

import (
	"errors"
	"net/http"

	"learning-path/internal/models"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error  string           `json:"error"`
	Kind   models.ErrorKind `json:"kind"`
	Detail string           `json:"detail,omitempty"`
	Field  string           `json:"field,omitempty"`
	Raw    string           `json:"raw,omitempty"`
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindThrottled:
		return http.StatusTooManyRequests
	case models.KindUpstream, models.KindMalformedOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error) (int, errorResponse) {
	kind := models.KindOf(err)
	resp := errorResponse{
		Error: err.Error(),
		Kind:  kind,
		Raw:   models.RawPayload(err),
	}

	var validation *models.ValidationError
	var malformed *models.MalformedOutputError
	switch {
	case errors.As(err, &validation):
		resp.Field = validation.Field
		resp.Detail = validation.Detail
	case errors.As(err, &malformed):
		resp.Detail = malformed.Detail
	}

	return statusFor(kind), resp
}
