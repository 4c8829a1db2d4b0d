package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vmoroz/petition-assistant/internal/core/progress"
	"github.com/vmoroz/petition-assistant/internal/core/tracker"
)

type statusEvent struct {
	Label    string `json:"label"`
	Percent  int    `json:"percent"`
	Terminal string `json:"terminal,omitempty"`
}

// getStatus returns one normalized snapshot of the case's progress.
func (rt *Router) getStatus(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case_id")
	raw, err := rt.statuses.ProcessingStatus(r.Context(), caseID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	state := progress.Normalize(raw, progress.DisplayState{})
	writeJSON(w, http.StatusOK, map[string]any{
		"case_id": caseID,
		"raw":     raw,
		"label":   state.Label,
		"percent": state.Percent,
	})
}

// streamStatus serves the polling loop over server-sent events. The
// subscription dies with the connection; a closed tab stops the polling
// instead of leaking it.
func (rt *Router) streamStatus(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	caseID := r.PathValue("case_id")
	if _, err := rt.statuses.ProcessingStatus(r.Context(), caseID); err != nil {
		rt.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if rt.metrics != nil {
		rt.metrics.SubscriptionStarted()
	}
	reason := "disconnected"
	defer func() {
		if rt.metrics != nil {
			rt.metrics.SubscriptionFinished(rt.cfg.ServiceName, reason)
		}
	}()

	updates := make(chan tracker.Update, 16)
	sub := rt.tracker.Start(r.Context(), caseID, func(u tracker.Update) {
		// Never block the polling loop on a stalled client; it just
		// sees fewer intermediate updates.
		select {
		case updates <- u:
		default:
		}
	})
	defer sub.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case u := <-updates:
			if err := writeSSEEvent(w, flusher, u); err != nil {
				return
			}
			if u.Terminal != "" {
				reason = string(u.Terminal)
				return
			}
		case <-sub.Done():
			// Drain anything delivered before the loop exited.
			for {
				select {
				case u := <-updates:
					if u.Terminal != "" {
						reason = string(u.Terminal)
					}
					if writeSSEEvent(w, flusher, u) != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, u tracker.Update) error {
	payload, err := json.Marshal(statusEvent{
		Label:    u.State.Label,
		Percent:  u.State.Percent,
		Terminal: string(u.Terminal),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
