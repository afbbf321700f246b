package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/projsync/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message and a hint for err, then returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found.\n")
		fmt.Fprintf(out, "Create a projsync.yml listing your projects, or pass --config.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintf(out, "Fix projsync.yml and try again.\n")

	case errors.ErrCodeProviderUnavailable:
		fmt.Fprintf(out, "❌ Local files could not be loaded: %v\n", err)
		fmt.Fprintf(out, "Check that the configured project paths exist, or restart the daemon with 'projsync daemon start'.\n")

	case errors.ErrCodeMalformedResponse:
		fmt.Fprintf(out, "❌ The local data provider returned an invalid inventory.\n")
		fmt.Fprintf(out, "Restart the daemon with 'projsync daemon stop && projsync daemon start'.\n")

	case errors.ErrCodeCloudFetchFailed:
		if psErr, ok := err.(*errors.ProjsyncError); ok && psErr.Details["source"] != nil {
			fmt.Fprintf(out, "❌ Could not fetch cloud projects from %v\n", psErr.Details["source"])
		} else {
			fmt.Fprintf(out, "❌ Could not fetch cloud projects\n")
		}
		fmt.Fprintf(out, "Check cloud.source in projsync.yml.\n")

	case errors.ErrCodeDaemonRunning:
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintf(out, "Stop it first with 'projsync daemon stop'.\n")

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(out, "❌ The projsync daemon is not running.\n")
		fmt.Fprintf(out, "Start it with 'projsync daemon start'.\n")

	case errors.ErrCodeNotFound:
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintf(out, "Run 'projsync files' to see known projects.\n")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if psErr, ok := err.(*errors.ProjsyncError); ok {
			fmt.Fprintf(out, "\nError details:\n%s\n", psErr.ToJSON())
		}
	}
	return err
}
