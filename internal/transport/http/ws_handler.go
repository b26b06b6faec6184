package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// confirmTimeout bounds the attempt write of a confirmed submit.
const confirmTimeout = 10 * time.Second

type WSHandler struct {
	takings  *app.TakingService
	upgrader websocket.Upgrader
}

func NewWSHandler(takings *app.TakingService) *WSHandler {
	return &WSHandler{
		takings: takings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Index  int `json:"index"`
	Choice int `json:"choice"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS runs one quiz taking over a websocket. The taking lives exactly as
// long as the connection: closing the socket discards an unsubmitted taking.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		http.Error(w, domain.ErrUnauthenticated.Error(), http.StatusUnauthorized)
		return
	}
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	taking, err := h.takings.Start(r.Context(), session, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer h.takings.Finish(taking.ID())

	updates, cancel := taking.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// a single writer goroutine owns the connection's write side
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r.Context(), taking, inbound); err != nil {
			select {
			case send <- errorMessage(err.Error()):
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one client command. Successful commands reach the client
// through the subscription.
func (h *WSHandler) dispatch(ctx context.Context, taking *app.Taking, msg inboundMessage) error {
	var err error
	switch msg.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errInvalidPayload
		}
		_, err = taking.SelectAnswer(p.Index, p.Choice)
	case "next":
		_, err = taking.Next()
	case "previous":
		_, err = taking.Previous()
	case "jump":
		var p jumpPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errInvalidPayload
		}
		_, err = taking.JumpTo(p.Index)
	case "requestSubmit":
		_, err = taking.RequestSubmit()
	case "cancelSubmit":
		_, err = taking.CancelSubmit()
	case "confirmSubmit":
		submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
		_, err = taking.ConfirmSubmit(submitCtx)
		cancel()
	case "cancel":
		_, err = taking.Cancel()
	default:
		return errUnsupported
	}
	return err
}

type wsError string

func (e wsError) Error() string { return string(e) }

const (
	errInvalidPayload = wsError("invalid payload")
	errUnsupported    = wsError("unsupported message type")
)
