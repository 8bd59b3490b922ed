package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"dailygraph-quiz/internal/app"
	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/quiz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	tick     time.Duration
}

// WSOption customizes a WSHandler.
type WSOption func(*WSHandler)

// WithTickInterval overrides the one-second attempt clock (tests).
func WithTickInterval(d time.Duration) WSOption {
	return func(h *WSHandler) { h.tick = d }
}

func NewWSHandler(service *app.QuizService, opts ...WSOption) *WSHandler {
	h := &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tick: time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type questionPayload struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	LearnerID   string `json:"learnerId"`
	EntryID     string `json:"entryId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one attempt. A single goroutine owns the
// attempt: it merges client commands with the clock and is the only writer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	entryID := r.URL.Query().Get("entryId")
	learnerID := r.URL.Query().Get("learnerId")
	review := r.URL.Query().Get("mode") == string(quiz.ModeReview)
	if entryID == "" {
		http.Error(w, "missing entryId", http.StatusBadRequest)
		return
	}
	if learnerID == "" {
		learnerID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	attempt, entry, err := h.service.Open(ctx, learnerID, entryID, review)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(typ string, payload any) bool {
		if err := conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil {
			log.Printf("ws write error: %v", err)
			return false
		}
		return true
	}

	send("session", sessionPayload{
		LearnerID:   learnerID,
		EntryID:     entry.ID,
		Title:       entry.Content.Title,
		Description: entry.Content.Description,
	})
	send("state", attempt.View())

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			v := attempt.View()
			if v.Mode != quiz.ModeAttempt || v.Paused || v.Empty {
				continue
			}
			result, err := attempt.Tick(ctx)
			if err != nil {
				log.Printf("tick %s: %v", entry.ID, err)
				send("error", errorPayload{Message: err.Error()})
				continue
			}
			if result != nil && !send("result", result) {
				return
			}
			if !send("state", attempt.View()) {
				return
			}
		case msg := <-inbound:
			result, err := h.apply(ctx, attempt, msg)
			if err != nil {
				if !send("error", errorPayload{Message: err.Error()}) {
					return
				}
				continue
			}
			if result != nil && !send("result", result) {
				return
			}
			if msg.Type == "saveExit" {
				send("saved", attempt.Progress())
			}
			if !send("state", attempt.View()) {
				return
			}
		}
	}
}

var errUnsupported = errors.New("unsupported message type")

func (h *WSHandler) apply(ctx context.Context, a *quiz.Attempt, msg inboundMessage) (*domain.Result, error) {
	var p questionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid payload")
		}
	}
	switch msg.Type {
	case "select":
		return nil, a.SelectOption(p.Index, p.Label)
	case "toggleReview":
		return nil, a.ToggleReview(p.Index)
	case "clear":
		return nil, a.ClearAnswer(p.Index)
	case "navigate":
		return nil, a.Navigate(p.Index)
	case "next":
		return nil, a.Next()
	case "prev":
		return nil, a.Prev()
	case "pause":
		return nil, a.Pause()
	case "resume":
		return nil, a.Resume()
	case "saveExit":
		return nil, a.SaveAndExit(ctx)
	case "submit":
		result, err := a.Submit(ctx)
		if err != nil {
			return nil, err
		}
		return &result, nil
	case "showSolutions":
		return nil, a.ShowSolutions()
	case "summary":
		return nil, a.BackToSummary()
	case "reattempt":
		return nil, a.ReAttempt()
	default:
		return nil, errUnsupported
	}
}
