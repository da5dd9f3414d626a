package types

import (
	"time"
)

// Player is the synchronized view of one connected participant.
type Player struct {
	SessionId      string  `json:"sessionId"`
	Name           string  `json:"name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Anim           string  `json:"anim"`
	ReadyToConnect bool    `json:"readyToConnect"`
	VideoConnected bool    `json:"videoConnected"`
	Money          int     `json:"money"`
	Score          int     `json:"score"`
}

type ChatMessage struct {
	SenderId  string    `json:"senderId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Resource struct {
	Id             string   `json:"id"`
	RoomId         string   `json:"roomId,omitempty"`
	ConnectedUsers []string `json:"connectedUsers"`
}

type Quiz struct {
	Phase                 string    `json:"phase"`
	CurrentQuestionNumber int       `json:"currentQuestionNumber"`
	PhaseStart            time.Time `json:"phaseStart"`
	PhaseDurationMs       int64     `json:"phaseDurationMs"`
	Participants          []string  `json:"participants"`
}

// OfficeState is a read-only snapshot of a room's state tree, as pushed to clients.
type OfficeState struct {
	Players      map[string]Player   `json:"players"`
	Computers    map[string]Resource `json:"computers"`
	Whiteboards  map[string]Resource `json:"whiteboards"`
	ChatMessages []ChatMessage       `json:"chatMessages"`
	Quiz         Quiz                `json:"quiz"`
}

// Room is the public description of a room, as sent to a joining client.
type Room struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoomListing is the lobby entry for a room. The password hash is never listed.
type RoomListing struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HasPassword bool      `json:"hasPassword"`
	Clients     int       `json:"clients"`
	CreatedAt   time.Time `json:"createdAt"`
}
