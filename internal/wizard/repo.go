package wizard

import "context"

// Repo stores live sessions.
type Repo interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) ([]string, error)
}
