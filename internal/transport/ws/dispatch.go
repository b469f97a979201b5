package ws

import (
	"context"
	"duelquiz/internal/model"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errMalformedMessage = errors.New("malformed message")
	errMissingRoom      = errors.New("missing room")
)

// dispatch applies one inbound room event. A returned error is reported to
// the sending connection only; the connection stays open.
func (h *Handler) dispatch(ctx context.Context, conn *Connection, msg *Message) error {
	switch msg.Type {
	case model.EventJoinRoom:
		var req model.JoinRoomRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		if req.Room == "" {
			return errMissingRoom
		}
		// join the room first so the roster broadcast reaches this connection
		prev := h.hub.JoinRoom(conn.ID, req.Room)
		if _, err := h.slots.AttachConnection(req.Room, req.SlotID, conn.ID, req.Name); err != nil {
			if prev != "" {
				h.hub.JoinRoom(conn.ID, prev)
			} else {
				h.hub.LeaveRoom(conn.ID)
			}
			return err
		}
		return nil

	case model.EventHostStart:
		var req model.RoomRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		return h.rounds.Start(ctx, req.Room)

	case model.EventSubmitAnswer:
		var req model.SubmitAnswerRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		_, err := h.rounds.SubmitAnswer(ctx, req.Room, req.SlotID, req.Index, req.ChoiceIndex, req.TimeLeftSeconds)
		return err

	case model.EventAdvance:
		var req model.RoomRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		return h.rounds.Advance(ctx, req.Room)

	case model.EventTogglePause:
		var req model.TogglePauseRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		return h.rounds.TogglePause(ctx, req.Room, req.Paused)

	default:
		return fmt.Errorf("unknown event %q", msg.Type)
	}
}

func (h *Handler) sendError(conn *Connection, err error) {
	h.hub.SendToConnection(conn.ID, model.EventError, model.ErrorEvent{Error: err.Error()})
}

func decodePayload(msg *Message, v interface{}) error {
	if len(msg.Payload) == 0 {
		return errMalformedMessage
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	return nil
}
