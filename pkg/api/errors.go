package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// errUnknownAgent is returned by AgentRegistry.Dispatch for an
// unrecognized :agentId path parameter.
var errUnknownAgent = errors.New("unknown agent")

// mapAgentError maps a Dispatch error to the (status, BoundaryError)
// pair a handler writes, following the teacher's mapServiceError
// (pkg/api/errors.go) errors.As/errors.Is chain, adapted to two of the
// error-kind classes from spec §7 (validation and execution) instead of
// tarsy's service-layer ones.
func mapAgentError(err error) (int, evalmodel.BoundaryError) {
	var jsonErr *json.SyntaxError
	var jsonTypeErr *json.UnmarshalTypeError
	if errors.As(err, &jsonErr) || errors.As(err, &jsonTypeErr) {
		return http.StatusBadRequest, evalmodel.BoundaryError{
			Code: "VALIDATION_ERROR", Message: err.Error(), Recoverable: true,
		}
	}

	var validErr *evalmodel.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, evalmodel.NewValidationBoundaryError(validErr)
	}

	if errors.Is(err, errUnknownAgent) {
		return http.StatusNotFound, evalmodel.BoundaryError{
			Code: "VALIDATION_ERROR", Message: err.Error(), Recoverable: true,
		}
	}

	slog.Error("unexpected agent execution error", "error", err)
	return http.StatusInternalServerError, evalmodel.BoundaryError{
		Code: "EXECUTION_ERROR", Message: "internal server error", Recoverable: false,
	}
}
