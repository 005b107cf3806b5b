package dispatch

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/csvedit/internal/client"
)

// Data attribute keys read from a triggering control.
const (
	ColumnIDKey = "column_id"
	RowIDKey    = "row_id"
)

// Kind identifies a UI event the dispatcher listens for.
type Kind int

const (
	UploadSubmitted Kind = iota
	RenameClicked
	DeleteClicked
)

func (k Kind) String() string {
	switch k {
	case UploadSubmitted:
		return "upload_submitted"
	case RenameClicked:
		return "rename_clicked"
	case DeleteClicked:
		return "delete_clicked"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is the control that triggered an event, reduced to its data attributes.
type Target struct {
	Data map[string]string
}

// Value returns the data attribute stored under key.
func (t Target) Value(key string) (string, bool) {
	v, ok := t.Data[key]
	return v, ok
}

// UploadForm is the submitted upload form: plain fields plus the file.
type UploadForm struct {
	Fields map[string]string
	File   client.File
}

// Event is one UI interaction.
type Event struct {
	Kind   Kind
	Target Target
	// Form is set for UploadSubmitted.
	Form *UploadForm
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) (Outcome, error)

// Binder is a view that events can be registered on.
type Binder interface {
	On(kind Kind, h Handler)
}

// Bind registers the dispatcher's three handlers on view. Call it once while
// the view is initialised.
func Bind(view Binder, d *Dispatcher) {
	view.On(UploadSubmitted, func(ctx context.Context, ev Event) (Outcome, error) {
		if ev.Form == nil {
			return Failed, fmt.Errorf("%s: %w", ev.Kind, ErrMissingForm)
		}
		return d.SubmitUpload(ctx, *ev.Form)
	})
	view.On(RenameClicked, func(ctx context.Context, ev Event) (Outcome, error) {
		return d.RenameColumn(ctx, ev.Target)
	})
	view.On(DeleteClicked, func(ctx context.Context, ev Event) (Outcome, error) {
		return d.DeleteRow(ctx, ev.Target)
	})
}
