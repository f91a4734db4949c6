package web

import (
	"errors"
	"net/http"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/store"
	"mindmap-cli/internal/tree"
	"mindmap-cli/internal/treesync"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps domain errors to an HTTP status and a stable code. Root
// protection is a policy answer (409); a failed persist is an infrastructure
// fault the client should retry (503).
func statusFor(err error) (int, string) {
	var nf treesync.NotFoundError
	switch {
	case errors.Is(err, treesync.ErrRootProtected):
		return http.StatusConflict, "root_protected"
	case errors.Is(err, treesync.ErrPersistInFlight):
		return http.StatusConflict, "persist_in_flight"
	case errors.Is(err, treesync.ErrPersist):
		return http.StatusServiceUnavailable, "persist_failed"
	case errors.As(err, &nf), errors.Is(err, store.ErrNotFound), errors.Is(err, address.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, address.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case errors.Is(err, treesync.ErrCycle):
		return http.StatusBadRequest, "cycle"
	case errors.Is(err, tree.ErrInvalidID):
		return http.StatusBadRequest, "invalid_id"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		loggerFrom(c).Error("request failed", "code", code, "error", err)
	} else {
		loggerFrom(c).Warn("request rejected", "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request"})
}
