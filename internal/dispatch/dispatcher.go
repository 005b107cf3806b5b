// Package dispatch turns UI events on the CSV editing view into API calls.
//
// Each action is one-shot: it sends a single request, then either refreshes
// the whole view from the server or surfaces the server's detail message.
// Nothing is retried, queued or debounced, and overlapping actions race
// independently against the server.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/csvedit/internal/client"
	"github.com/JonMunkholm/csvedit/internal/logging"
)

// RenamePrompt is shown when asking for a new column name.
const RenamePrompt = "Enter new column name"

var (
	// ErrMissingTarget is returned when the triggering control lacks the
	// identifier an action needs.
	ErrMissingTarget = errors.New("control has no target identifier")

	// ErrMissingForm is returned when an upload event carries no form.
	ErrMissingForm = errors.New("upload event has no form")
)

// Outcome is how an action ended.
type Outcome int

const (
	// Refreshed means the server accepted the change and the view was refetched.
	Refreshed Outcome = iota
	// ErrorShown means the server's detail message was surfaced to the user.
	ErrorShown
	// Cancelled means the user dismissed the input prompt; nothing was sent.
	Cancelled
	// Failed means the action ended with an error that could not be surfaced.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Refreshed:
		return "refreshed"
	case ErrorShown:
		return "error_shown"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// API is the subset of the CSV server the dispatcher calls.
type API interface {
	UploadCSV(ctx context.Context, fields map[string]string, file client.File) error
	RenameColumn(ctx context.Context, columnID, newName string) error
	DeleteRow(ctx context.Context, rowID string) error
}

// Dispatcher runs the upload, rename and delete actions.
type Dispatcher struct {
	api API
	ui  UI
}

// New creates a Dispatcher.
func New(api API, ui UI) *Dispatcher {
	return &Dispatcher{api: api, ui: ui}
}

// SubmitUpload posts the form. On success the upload dialog is closed and the
// view refreshed; on rejection the detail is written into the dialog, which
// stays open.
func (d *Dispatcher) SubmitUpload(ctx context.Context, form UploadForm) (Outcome, error) {
	logger := logging.WithFields(ctx, "action", "upload", "filename", form.File.Filename)

	err := d.api.UploadCSV(ctx, form.Fields, form.File)
	if err == nil {
		d.ui.Close()
	}
	return d.settle(ctx, logger, err, d.ui.ShowError)
}

// RenameColumn asks for a new name and renames the target's column. A
// cancelled prompt sends nothing; an empty name is sent.
func (d *Dispatcher) RenameColumn(ctx context.Context, target Target) (Outcome, error) {
	columnID, ok := target.Value(ColumnIDKey)
	if !ok {
		return Failed, fmt.Errorf("rename column: %w: %s", ErrMissingTarget, ColumnIDKey)
	}
	logger := logging.WithFields(ctx, "action", "rename_column", "column_id", columnID)

	name, ok := d.ui.RequestInput(ctx, RenamePrompt)
	if !ok {
		logger.Debug("rename cancelled")
		return Cancelled, nil
	}

	err := d.api.RenameColumn(ctx, columnID, name)
	return d.settle(ctx, logger, err, d.notify(ctx))
}

// DeleteRow deletes the target's row.
func (d *Dispatcher) DeleteRow(ctx context.Context, target Target) (Outcome, error) {
	rowID, ok := target.Value(RowIDKey)
	if !ok {
		return Failed, fmt.Errorf("delete row: %w: %s", ErrMissingTarget, RowIDKey)
	}
	logger := logging.WithFields(ctx, "action", "delete_row", "row_id", rowID)

	err := d.api.DeleteRow(ctx, rowID)
	return d.settle(ctx, logger, err, d.notify(ctx))
}

func (d *Dispatcher) notify(ctx context.Context) func(string) {
	return func(msg string) { d.ui.Notify(ctx, msg) }
}

// settle applies the terminal step of an action: refresh on success, surface
// the detail of a server rejection, or hand back anything else.
//
// A rejection without a detail field is not surfaced; it comes back as an
// error wrapping client.ErrMalformedError.
func (d *Dispatcher) settle(ctx context.Context, logger *slog.Logger, err error, surface func(string)) (Outcome, error) {
	if err == nil {
		logger.Info("action succeeded")
		if rerr := d.ui.Refresh(ctx); rerr != nil {
			return Refreshed, fmt.Errorf("refresh: %w", rerr)
		}
		return Refreshed, nil
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		logger.Info("action rejected", "status", apiErr.StatusCode, "detail", apiErr.Detail)
		surface(apiErr.Detail)
		return ErrorShown, nil
	}

	logger.Warn("action failed", "error", err)
	return Failed, err
}
