package reply

import (
	"context"
	"time"

	"go.uber.org/zap"

	"paintbot/logging"
)

// Deleter deletes one previously sent message. Implemented by the message
// channel collaborator.
type Deleter interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Recaller schedules deletion of sent messages after a configured delay.
//
// Deletion is fire-and-forget: the timer is detached, no handle is
// retained, and failures are logged, never surfaced. A zero delay disables
// recall entirely.
type Recaller struct {
	delay   time.Duration
	deleter Deleter
	logger  *logging.Logger
}

// NewRecaller creates a Recaller.
func NewRecaller(delay time.Duration, deleter Deleter, logger *logging.Logger) *Recaller {
	return &Recaller{delay: delay, deleter: deleter, logger: logger.Named("recall")}
}

// Enabled reports whether a recall delay is configured.
func (r *Recaller) Enabled() bool {
	return r.delay > 0 && r.deleter != nil
}

// Schedule arms one detached timer deleting every message id after the
// configured delay. Returns immediately; does nothing when recall is
// disabled.
func (r *Recaller) Schedule(channelID string, messageIDs []string) {
	if !r.Enabled() || len(messageIDs) == 0 {
		return
	}
	ids := make([]string, len(messageIDs))
	copy(ids, messageIDs)

	time.AfterFunc(r.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, id := range ids {
			if err := r.deleter.DeleteMessage(ctx, channelID, id); err != nil {
				r.logger.Warn("failed to recall message",
					zap.String("channel_id", channelID),
					zap.String("message_id", id),
					zap.Error(err))
			}
		}
	})
}
