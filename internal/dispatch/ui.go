package dispatch

import "context"

// Input is a modal input capability. ok is false when the user dismissed
// the prompt, which is different from submitting an empty value.
type Input interface {
	RequestInput(ctx context.Context, prompt string) (value string, ok bool)
}

// Notifier is a modal notification capability.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// UploadDialog is the dialog hosting the upload form.
type UploadDialog interface {
	// Close dismisses the dialog.
	Close()
	// ShowError writes message into the dialog's error element.
	ShowError(message string)
}

// Refresher invalidates and refetches all view state from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// UI is everything the dispatcher needs from the view.
type UI interface {
	Input
	Notifier
	UploadDialog
	Refresher
}
