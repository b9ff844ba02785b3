package notify

import (
	"context"

	"github.com/Cheertaboi/storefront/internal/concurrency"
)

// Dispatcher sends mail on the background worker pool so callers never wait
// on SMTP.
type Dispatcher struct {
	pool   *concurrency.Pool
	mailer Mailer
}

func NewDispatcher(pool *concurrency.Pool, mailer Mailer) *Dispatcher {
	return &Dispatcher{pool: pool, mailer: mailer}
}

// Enqueue only fails when the message cannot be queued; delivery errors are
// logged by the pool.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	return d.pool.Submit(ctx, concurrency.Job{
		Name: "mail: " + msg.Subject,
		Run: func(ctx context.Context) error {
			return d.mailer.Send(ctx, msg)
		},
	})
}
