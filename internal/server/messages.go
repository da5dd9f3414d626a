package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// Inbound message names.
const (
	MsgConnectToComputer        = "connect_to_computer"
	MsgDisconnectFromComputer   = "disconnect_from_computer"
	MsgConnectToWhiteboard      = "connect_to_whiteboard"
	MsgDisconnectFromWhiteboard = "disconnect_from_whiteboard"
	MsgStopScreenShare          = "stop_screen_share"
	MsgUpdatePlayer             = "update_player"
	MsgUpdatePlayerName         = "update_player_name"
	MsgUpdatePlayerInfo         = "update_player_info"
	MsgReadyToConnect           = "ready_to_connect"
	MsgVideoConnected           = "video_connected"
	MsgDisconnectStream         = "disconnect_stream"
	MsgAddChatMessage           = "add_chat_message"
	MsgRequestQuiz              = "request_quiz"
	MsgLeaveQuiz                = "leave_quiz"
)

// Outbound-only message names. Relays reuse the inbound name.
const (
	MsgRoomData         = "room_data"
	MsgState            = "state"
	MsgStartQuiz        = "start_quiz"
	MsgEndQuiz          = "end_quiz"
	MsgPlayerJoinQuiz   = "player_join_quiz"
	MsgWaitForNextQuiz  = "wait_for_next_quiz"
	MsgQuizParticipants = "quiz_participants"
	MsgLeftQuiz         = "left_quiz"
	MsgPlayerLeftQuiz   = "player_left_quiz"
	MsgRoomDisposed     = "room_disposed"
	MsgResponse         = "response"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	client  *Client         `json:"-"`
	command Command         `json:"-"`
}

type ServerMessage struct {
	BaseMessage
	Type     string    `json:"type"`
	Payload  any       `json:"payload,omitempty"`
	Response *Response `json:"response,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type relayPayload struct {
	ClientId string `json:"clientId"`
}

type chatRelayPayload struct {
	ClientId string `json:"clientId"`
	Content  string `json:"content"`
}

type startQuizPayload struct {
	QuestionNumber int   `json:"questionNumber"`
	DurationMs     int64 `json:"durationMs"`
}

type endQuizPayload struct {
	QuestionNumber int `json:"questionNumber"`
}

type joinQuizPayload struct {
	QuestionNumber int     `json:"questionNumber"`
	RemainingTime  float64 `json:"remainingTime"`
}

type waitQuizPayload struct {
	TimeUntilNextQuiz float64 `json:"timeUntilNextQuiz"`
	NextQuizEndsIn    float64 `json:"nextQuizEndsIn"`
}

type participantsPayload struct {
	Participants []string `json:"participants"`
}

type roomDisposedPayload struct {
	RoomId string `json:"roomId"`
}

func newMessage(msgType string, payload any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Type:    msgType,
		Payload: payload,
	}
}

func newResponse(id, code int, errMsg string) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Type: MsgResponse,
		Response: &Response{
			ResponseCode: code,
			Error:        errMsg,
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func NoErrOK(id int) *ServerMessage {
	return newResponse(id, http.StatusOK, "")
}

func ErrInvalidMessage(id int) *ServerMessage {
	return newResponse(id, http.StatusBadRequest, "invalid message format")
}

func ErrUnknownMessageType(id int) *ServerMessage {
	return newResponse(id, http.StatusNotFound, "unknown message type")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return newResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
