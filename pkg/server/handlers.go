package server

import (
	"encoding/json"
	"strings"
)

// dispatch routes one inbound envelope. Malformed payloads and precondition
// failures answer the origin session only.
func (srv *Server) dispatch(s *session, env envelope) {
	switch env.Type {
	case EventCreateRoom:
		var req CreateRoomRequest
		if !decode(s, env.Data, &req) {
			return
		}
		srv.handleCreateRoom(s, req)

	case EventJoinRoom:
		var req JoinRoomRequest
		if !decode(s, env.Data, &req) {
			return
		}
		srv.handleJoinRoom(s, req)

	case EventStartGame:
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.startGame(playerID)
		}

	case EventPlayCard:
		var req PlayCardRequest
		if !decode(s, env.Data, &req) {
			return
		}
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.playCard(playerID, req)
		}

	case EventDrawCard:
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.drawCard(playerID)
		}

	case EventDrawPowerCard:
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.drawPowerCard(playerID)
		}

	case EventPlayPowerCard:
		var req PlayPowerCardRequest
		if !decode(s, env.Data, &req) {
			return
		}
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.playPowerCard(playerID, req)
		}

	case EventLeaveRoom:
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.leave(playerID)
			s.clearIdentity()
		}

	case EventSendEmote:
		var req SendEmoteRequest
		if !decode(s, env.Data, &req) {
			return
		}
		if r, playerID, ok := srv.sessionRoom(s); ok {
			r.emote(playerID, req.EmoteType)
		}

	case EventUpdateAuth:
		var req UpdateAuthRequest
		if !decode(s, env.Data, &req) {
			return
		}
		srv.handleUpdateAuth(s, req)

	default:
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "unknown event type"}})
	}
}

func (srv *Server) handleCreateRoom(s *session, req CreateRoomRequest) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "name is required"}})
		return
	}
	if _, roomCode := s.identity(); roomCode != "" {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "already in a room"}})
		return
	}

	r, err := srv.createRoom()
	if err != nil {
		srv.log.Errorf("create room: %v", err)
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "could not create room"}})
		return
	}
	playerID := r.addHost(s, s.getUserID(), name)
	s.setIdentity(playerID, r.code, name)
}

func (srv *Server) handleJoinRoom(s *session, req JoinRoomRequest) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "name is required"}})
		return
	}
	if _, roomCode := s.identity(); roomCode != "" {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "already in a room"}})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	r := srv.getRoom(code)
	if r == nil {
		s.sendEvent(Event{Type: EventJoinResult, Data: JoinResultPayload{
			Success: false,
			Reason:  reasonRoomNotFound,
		}})
		return
	}
	if playerID, ok := r.join(s, s.getUserID(), name); ok {
		s.setIdentity(playerID, code, name)
	}
}

func (srv *Server) handleUpdateAuth(s *session, req UpdateAuthRequest) {
	s.setUserID(req.Token)
	if playerID, roomCode := s.identity(); roomCode != "" {
		if r := srv.getRoom(roomCode); r != nil {
			r.setUserID(playerID, req.Token)
		}
	}
}

// sessionRoom resolves the session's room, answering with an error when the
// session is not seated anywhere.
func (srv *Server) sessionRoom(s *session) (*Room, string, bool) {
	playerID, roomCode := s.identity()
	if roomCode == "" {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "not in a room"}})
		return nil, "", false
	}
	r := srv.getRoom(roomCode)
	if r == nil {
		s.clearIdentity()
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: reasonRoomNotFound}})
		return nil, "", false
	}
	return r, playerID, true
}

// decode unmarshals an inbound payload, answering the origin on failure.
func decode(s *session, data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "missing payload"}})
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.sendEvent(Event{Type: EventError, Data: ErrorPayload{Message: "malformed payload"}})
		return false
	}
	return true
}
