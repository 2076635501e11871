package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"formula-trivia/internal/app"
	"formula-trivia/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.GameService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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

type startPayload struct {
	Level int `json:"level"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// errorCodes lets clients branch on failures without parsing messages.
var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrGamePaused, "game_paused"},
	{domain.ErrGameNotFound, "game_not_found"},
	{domain.ErrNoCurrentQuestion, "no_current_question"},
	{domain.ErrUnknownLevel, "unknown_level"},
	{domain.ErrLevelNotComplete, "level_not_complete"},
	{domain.ErrFinalLevel, "final_level"},
	{domain.ErrNoQuestions, "no_questions"},
	{domain.ErrQuestionsNotFound, "no_questions"},
}

func errorMessage(err error) outboundMessage[any] {
	payload := errorPayload{Message: err.Error()}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			payload.Code = c.code
			break
		}
	}
	return outboundMessage[any]{Type: "error", Payload: payload}
}

// ServeWS upgrades HTTP requests to websockets and drives the player's game.
// Players without an id are assigned a guest id, returned in the first state frame.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	if playerID == "" {
		playerID = "guest-" + uuid.NewString()
	}
	log := h.logger.With("player", playerID, "request_id", RequestID(r.Context()))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel := h.service.Subscribe(ctx)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: newLeaderboardView(update)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	log.Info("player connected", "name", displayName)
	send <- h.stateMessage(ctx, playerID)

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, playerID, displayName, inbound) {
			if !enqueue(send, writerDone, msg) {
				break readLoop
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	log.Info("player disconnected")
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped, so a dead connection never blocks the reader on a full buffer.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// handle runs one inbound message and returns the frames to send back.
func (h *WSHandler) handle(ctx context.Context, playerID, displayName string, inbound inboundMessage) []outboundMessage[any] {
	var err error
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage(errors.New("invalid start payload"))}
		}
		_, err = h.service.StartLevel(ctx, playerID, displayName, payload.Level)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage(errors.New("invalid answer payload"))}
		}
		return h.answer(ctx, playerID, payload.Answer)
	case "pause":
		_, err = h.service.Pause(ctx, playerID)
	case "resume":
		_, err = h.service.Resume(ctx, playerID)
	case "retry":
		_, err = h.service.Retry(ctx, playerID)
	case "next":
		_, err = h.service.NextLevel(ctx, playerID)
	case "quit":
		h.service.Quit(ctx, playerID)
	case "state":
	default:
		return []outboundMessage[any]{errorMessage(errors.New("unsupported message type"))}
	}
	if err != nil {
		return []outboundMessage[any]{errorMessage(err)}
	}
	return []outboundMessage[any]{h.stateMessage(ctx, playerID)}
}

func (h *WSHandler) answer(ctx context.Context, playerID, selected string) []outboundMessage[any] {
	outcome, err := h.service.Answer(ctx, playerID, selected)
	if err != nil {
		return []outboundMessage[any]{errorMessage(err)}
	}
	out := []outboundMessage[any]{{Type: "answerResult", Payload: newAnswerView(outcome)}}
	if outcome.Result != nil {
		out = append(out, outboundMessage[any]{
			Type:    "levelResult",
			Payload: newLevelResultView(*outcome.Result, outcome.PersonalBest, h.service.MaxLevel()),
		})
	}
	return append(out, h.stateMessage(ctx, playerID))
}

// stateMessage reports the player's session and current question. A player
// without a game gets a state frame with no session.
func (h *WSHandler) stateMessage(ctx context.Context, playerID string) outboundMessage[any] {
	view := stateView{PlayerID: playerID}
	state, err := h.service.State(ctx, playerID)
	if errors.Is(err, domain.ErrGameNotFound) {
		return outboundMessage[any]{Type: "state", Payload: view}
	}
	if err != nil {
		return errorMessage(err)
	}
	session := newSessionView(state)
	view.Session = &session

	question, ok, err := h.service.CurrentQuestion(ctx, playerID)
	if err != nil {
		return errorMessage(err)
	}
	if ok {
		view.Question = &question
	}
	return outboundMessage[any]{Type: "state", Payload: view}
}
