package cli

import (
	"errors"

	"mindmap-cli/internal/address"
	"mindmap-cli/internal/format"
	"mindmap-cli/internal/store"
	"mindmap-cli/internal/tree"
	"mindmap-cli/internal/treesync"

	"github.com/spf13/cobra"
)

type errorBody struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// errorCode classifies err for the stderr envelope. Scripts branch on the
// code, not the message.
func errorCode(err error) string {
	var nf treesync.NotFoundError
	switch {
	case errors.Is(err, treesync.ErrRootProtected):
		return "root_protected"
	case errors.Is(err, treesync.ErrPersist):
		return "persist_failed"
	case errors.Is(err, treesync.ErrPersistInFlight):
		return "persist_in_flight"
	case errors.Is(err, treesync.ErrCycle):
		return "cycle"
	case errors.Is(err, address.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, tree.ErrInvalidID):
		return "invalid_id"
	case errors.As(err, &nf), errors.Is(err, store.ErrNotFound), errors.Is(err, address.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// writeErr prints the error envelope to stderr and returns err so cobra exits non-zero.
func writeErr(cmd *cobra.Command, app *App, err error) error {
	f := app.Format
	if !format.Valid(f) {
		f = "json"
	}
	_ = format.Write(cmd.ErrOrStderr(), map[string]any{
		"error": errorBody{Code: errorCode(err), Message: err.Error()},
	}, f, app.PrettyJSON)
	return err
}
