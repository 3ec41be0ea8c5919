package motor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed. Replaced in tests.
var sleep = func(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Execute applies cmd to d, blocking for its hold and cooldown. If ctx is
// cancelled during a wait the motors are stopped and ctx.Err() returned.
func Execute(ctx context.Context, d Driver, cmd Command) error {
	if ctx.Err() != nil {
		return stopOnCancel(ctx, d)
	}

	if cmd.Left == 0 && cmd.Right == 0 {
		if err := d.Stop(); err != nil {
			return err
		}
	} else {
		if err := d.SetVelocity(Left, ClampVelocity(cmd.Left)); err != nil {
			return err
		}
		if err := d.SetVelocity(Right, ClampVelocity(cmd.Right)); err != nil {
			return err
		}
	}

	if cmd.Hold > 0 && !sleep(ctx, cmd.Hold) {
		return stopOnCancel(ctx, d)
	}

	if cmd.StopAfterHold {
		if err := d.Stop(); err != nil {
			return err
		}
	}

	if cmd.Cooldown > 0 && !sleep(ctx, cmd.Cooldown) {
		return stopOnCancel(ctx, d)
	}

	return nil
}

func stopOnCancel(ctx context.Context, d Driver) error {
	if err := d.Stop(); err != nil {
		logrus.WithError(err).Error("failed to stop motors after cancellation")
	}
	return ctx.Err()
}
