package server

import (
	"encoding/json"

	"github.com/vvidal/powuno/pkg/uno"
)

// EventType names an event on the websocket surface. Client and server
// events share one namespace; direction is fixed by convention.
type EventType string

// Client -> server.
const (
	EventCreateRoom    EventType = "create_room"
	EventJoinRoom      EventType = "join_room"
	EventStartGame     EventType = "start_game"
	EventPlayCard      EventType = "play_card"
	EventDrawCard      EventType = "draw_card"
	EventDrawPowerCard EventType = "draw_power_card"
	EventPlayPowerCard EventType = "play_power_card"
	EventLeaveRoom     EventType = "leave_room"
	EventSendEmote     EventType = "send_emote"
	EventUpdateAuth    EventType = "update_auth"
)

// Server -> client.
const (
	EventRoomCreated      EventType = "room_created"
	EventJoinResult       EventType = "join_result"
	EventLobbyUpdate      EventType = "lobby_update"
	EventGameStarted      EventType = "game_started"
	EventStateUpdate      EventType = "state_update"
	EventHandUpdate       EventType = "hand_update"
	EventPowerStateUpdate EventType = "power_state_update"
	EventRushAlert        EventType = "rush_alert"
	EventGameEnded        EventType = "game_ended"
	EventError            EventType = "error"
	EventPlayerIdentified EventType = "player_identified"
	EventEmote            EventType = "emote"
)

// Event is the outbound envelope.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// envelope is the inbound frame; payloads stay raw until the dispatcher
// knows the type.
type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client request payloads.

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

type PlayCardRequest struct {
	CardID      string    `json:"card_id"`
	ChosenColor uno.Color `json:"chosen_color,omitempty"`
}

type PlayPowerCardRequest struct {
	CardID         string    `json:"card_id"`
	TargetPlayerID string    `json:"target_player_id,omitempty"`
	Color          uno.Color `json:"color,omitempty"`
}

type SendEmoteRequest struct {
	EmoteType string `json:"emote_type"`
}

// UpdateAuthRequest rebinds the connection's opaque user ID. Token
// verification belongs to the external auth surface; by the time an event
// reaches this server the token value is the opaque user identity.
type UpdateAuthRequest struct {
	Token string `json:"token,omitempty"`
}

// Server payloads.

type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type JoinResultPayload struct {
	Success  bool   `json:"success"`
	Reason   string `json:"reason,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

// LobbyPlayer is the pre-game seat view.
type LobbyPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"is_host"`
	Connected bool   `json:"connected"`
}

type LobbyUpdatePayload struct {
	RoomCode string        `json:"room_code"`
	Status   string        `json:"status"`
	Players  []LobbyPlayer `json:"players"`
}

type GameStartedPayload struct {
	PublicState uno.PublicState `json:"public_state"`
	Hand        []uno.Card      `json:"hand"`
}

type HandUpdatePayload struct {
	Cards []uno.Card `json:"cards"`
}

type RushAlertPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type GameEndedPayload struct {
	WinnerID string         `json:"winner_id"`
	Scores   map[string]int `json:"scores"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerIdentifiedPayload struct {
	PlayerID string `json:"player_id"`
}

type EmotePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	EmoteType  string `json:"emote_type"`
}
