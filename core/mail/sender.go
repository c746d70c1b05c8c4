package mail

import "context"

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
