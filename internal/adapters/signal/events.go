package signal

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/huddlemap/huddle/internal/app"
	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

var validate = validator.New()

// Inbound payloads. Required fields are checked here, at the transport
// boundary; nothing malformed reaches the hub. Coordinates and the typing
// flag use pointers so that zero values still count as present.
type joinPayload struct {
	RoomCode  string `json:"roomCode" validate:"required"`
	UserName  string `json:"userName" validate:"required"`
	UserColor string `json:"userColor" validate:"required"`
}

type locationPayload struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type messagePayload struct {
	Message string `json:"message" validate:"required"`
}

type privatePayload struct {
	ToUserID string `json:"toUserId" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type typingPayload struct {
	IsTyping *bool `json:"isTyping" validate:"required"`
}

func decode[T any](data []byte) (T, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if err := validate.Struct(&p); err != nil {
		return p, err
	}
	return p, nil
}

func (ctl *Controller) handleEvent(sid core.SessionID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoin(sid, data)
	case "update-location":
		ctl.handleLocation(sid, data)
	case "send-message":
		ctl.handleMessage(sid, data)
	case "send-private-message":
		ctl.handlePrivate(sid, data)
	case "typing":
		ctl.handleTyping(sid, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(sid core.SessionID, data []byte) {
	p, err := decode[joinPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(sid, "bad_payload")
		return
	}
	if err := ctl.Hub.Join(sid, p.RoomCode, p.UserName, p.UserColor); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			ctl.sendError(sid, "room not found")
			return
		}
		ctl.sendError(sid, err.Error())
	}
}

func (ctl *Controller) handleLocation(sid core.SessionID, data []byte) {
	p, err := decode[locationPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad location payload")
		ctl.sendError(sid, "bad_payload")
		return
	}
	ctl.Hub.UpdateLocation(sid, *p.Latitude, *p.Longitude)
}

func (ctl *Controller) handleMessage(sid core.SessionID, data []byte) {
	p, err := decode[messagePayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.sendError(sid, "bad_payload")
		return
	}
	ctl.Hub.SendBroadcast(sid, p.Message)
}

func (ctl *Controller) handlePrivate(sid core.SessionID, data []byte) {
	p, err := decode[privatePayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad private payload")
		ctl.sendError(sid, "bad_payload")
		return
	}
	ctl.Hub.SendPrivate(sid, core.SessionID(p.ToUserID), p.Message)
}

func (ctl *Controller) handleTyping(sid core.SessionID, data []byte) {
	p, err := decode[typingPayload](data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		ctl.sendError(sid, "bad_payload")
		return
	}
	ctl.Hub.SetTyping(sid, *p.IsTyping)
}

func (ctl *Controller) sendError(sid core.SessionID, msg string) {
	ctl.Emitter.EmitTo(sid, app.ErrorEvent{Type: app.EventError, Message: msg})
}
