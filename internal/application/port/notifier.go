package port

import "context"

// Emphasis marks how loudly a notification should be delivered.
type Emphasis int

const (
	EmphasisNormal Emphasis = iota
	EmphasisCritical
)

// Notifier delivers a message to a user. Delivery failures are returned to
// the caller but must never make the caller abort its batch; the
// reconciliation passes deactivate a fired alert whether or not Send
// succeeded.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string, emphasis Emphasis) error
}
