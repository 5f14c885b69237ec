package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/campus-kds/canteen-backend/api/responses"
	"github.com/campus-kds/canteen-backend/internal/realtime"
	pkgerrors "github.com/campus-kds/canteen-backend/pkg/errors"
	"github.com/campus-kds/canteen-backend/pkg/logger"
)

const sseKeepAliveInterval = 30 * time.Second

// EventsStream serves the realtime feed over server-sent events. Each
// broadcast becomes one SSE frame with the event name and the JSON
// payload; a comment line is sent periodically to keep idle proxies
// from dropping the connection.
func EventsStream(hub *realtime.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event hub unavailable"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		sub := hub.Subscribe()
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		keepAlive := time.NewTicker(sseKeepAliveInterval)
		defer keepAlive.Stop()

		ctx := r.Context()
		logg.Info(logg.WithField(ctx, "event", "realtime.client_connected"), "event stream opened")
		for {
			select {
			case <-ctx.Done():
				logg.Info(logg.WithField(ctx, "event", "realtime.client_disconnected"), "event stream closed")
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case evt, open := <-sub.C:
				if !open {
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, evt.Data)
				flusher.Flush()
			}
		}
	}
}
