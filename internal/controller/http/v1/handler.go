package v1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ksemenov/inbox_validator/internal/domain"
	"github.com/ksemenov/inbox_validator/internal/event"
)

type EventHandler interface {
	Handle(ctx context.Context, ev domain.Event) error
}

type EventsHandler struct {
	log          *slog.Logger
	eventHandler EventHandler
}

func NewEventsHandler(log *slog.Logger, eventHandler EventHandler) *EventsHandler {
	return &EventsHandler{
		log:          log,
		eventHandler: eventHandler,
	}
}

type PostEventResponse struct {
	Status string `json:"status"`
}

// PostEvent accepts a raw trigger payload, normalizes it and runs one
// workflow invocation synchronously.
func (h *EventsHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := event.Parse(payload)
	if err != nil {
		if errors.Is(err, event.ErrUnknownEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.eventHandler.Handle(r.Context(), ev); err != nil {
		h.log.ErrorContext(r.Context(), "failed to handle event", slog.String("err", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(PostEventResponse{Status: "processed"})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	w.Write(data)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
