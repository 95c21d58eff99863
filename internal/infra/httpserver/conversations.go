package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

const heartbeatInterval = 25 * time.Second

type assistanceBody struct {
	AssistanceType string `json:"assistanceType" validate:"max=32"`
}

// POST /conversations
func (r *Router) handleStartConversation(w http.ResponseWriter, req *http.Request) error {
	var body assistanceBody
	if err := decode(w, req, &body); err != nil {
		return err
	}
	if err := middleware.Validate(body); err != nil {
		return err
	}
	c, err := r.chat.Start(req.Context(), body.AssistanceType)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, c)
}

// GET /conversations
func (r *Router) handleListConversations(w http.ResponseWriter, req *http.Request) error {
	list, err := r.chat.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// PATCH /conversations/{id}
func (r *Router) handleSetAssistanceType(w http.ResponseWriter, req *http.Request) error {
	var body assistanceBody
	if err := decode(w, req, &body); err != nil {
		return err
	}
	if err := middleware.Validate(body); err != nil {
		return err
	}
	c, err := r.chat.SetAssistanceType(req.Context(), chat.ConversationID(chi.URLParam(req, "id")), body.AssistanceType)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c)
}

// GET /conversations/{id}/messages
func (r *Router) handleMessages(w http.ResponseWriter, req *http.Request) error {
	turns, err := r.chat.Turns(req.Context(), chat.ConversationID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, turns)
}

// GET /conversations/{id}/events
// Streams one "message" event per durable turn until the client goes away.
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported by response writer")
	}
	id := chat.ConversationID(chi.URLParam(req, "id"))
	turns, cancel, err := r.chat.Subscribe(req.Context(), id)
	if err != nil {
		return err
	}
	defer cancel()

	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": subscribed\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-req.Context().Done():
			return nil
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case t, ok := <-turns:
			if !ok {
				return nil
			}
			data, err := json.Marshal(t)
			if err != nil {
				r.log.Warn("encode feed turn failed", "conversation_id", id, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", t.ID, data); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
