package channels

import (
	"context"
	"errors"
	"log/slog"
)

// StartFailureLogger starts a goroutine that logs the hub's terminal error.
func StartFailureLogger(ctx context.Context, hub *Hub, logger *slog.Logger) {
	go func() {
		select {
		case <-hub.Done():
			err := hub.Err()
			if errors.Is(err, ErrHubClosed) {
				logger.DebugContext(ctx, "Notification hub closed")
				return
			}
			logger.ErrorContext(ctx, "Notification subscription failed",
				slog.String("error", err.Error()),
				slog.Int("queued", hub.Len()),
			)
		case <-ctx.Done():
			return
		}
	}()
}
