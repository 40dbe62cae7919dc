package booking

import (
	"context"
	"log/slog"
	"time"

	"hostelfinder/model"
)

// Completer closes confirmed stays whose checkout has passed. It is meant
// to be run by an external scheduler.
type Completer interface {
	CompleteFinished(ctx context.Context) (int, error)
}

type completer struct {
	r     Repo
	svc   Service
	batch int
	log   *slog.Logger
	now   func() time.Time
}

func NewCompleter(r Repo, svc Service, batch int, log *slog.Logger) Completer {
	if batch <= 0 {
		batch = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &completer{r: r, svc: svc, batch: batch, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (c *completer) CompleteFinished(ctx context.Context) (int, error) {
	ids, err := c.r.ListCompletable(ctx, model.DateOf(c.now()), c.batch)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		if _, err := c.svc.CompleteBooking(ctx, id); err != nil {
			// cancelled between listing and locking
			if Code(err) == ErrInvalidTransition || Code(err) == ErrNotFound {
				c.log.Info("skip completion", "booking_id", id, "err", err)
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}
