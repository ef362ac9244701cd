package messenger

import "context"

// Client defines an interface for delivering notifications to a chat.
// This decouples the application logic from the specific bot library.
type Client interface {
	// Send delivers one message. linkUrl, when non-empty, is appended as a
	// tappable link. A non-nil error means delivery failed for this
	// recipient only.
	Send(ctx context.Context, chatID int64, title, body, linkURL string) error
}
