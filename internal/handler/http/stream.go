package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httputil"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/logger"
)

const streamHeartbeat = 15 * time.Second

// Stream handles GET /api/v1/checkout/stream. It sends the current checkout
// as a server-sent event, then one event per published collection, until the
// client disconnects or the session ends. A slow client only ever receives
// the latest collection.
func (h *CheckoutHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := sessionIDFromContext(ctx)
	rc := http.NewResponseController(w)

	updates := make(chan service.Summary, 1)
	unsubscribe, done, err := h.service.Subscribe(ctx, sessionID, func(s service.Summary) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- s
		}
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer unsubscribe()

	current, err := h.service.Summary(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// The server-wide write timeout does not apply to a stream.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	l := logger.FromContext(ctx)
	if err := writeEvent(w, "checkout", current); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		l.WarnContext(ctx, "checkout stream cannot flush", slog.String("error", err.Error()))
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			_ = writeEvent(w, "end", struct{}{})
			_ = rc.Flush()
			return
		case s := <-updates:
			if err := writeEvent(w, "checkout", s); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w io.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
