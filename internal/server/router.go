package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

type decodeFunc func(payload json.RawMessage) (Command, error)

// inboundMessages lists every message a client may send.
var inboundMessages = []string{
	MsgConnectToComputer,
	MsgDisconnectFromComputer,
	MsgConnectToWhiteboard,
	MsgDisconnectFromWhiteboard,
	MsgStopScreenShare,
	MsgUpdatePlayer,
	MsgUpdatePlayerName,
	MsgUpdatePlayerInfo,
	MsgReadyToConnect,
	MsgVideoConnected,
	MsgDisconnectStream,
	MsgAddChatMessage,
	MsgRequestQuiz,
	MsgLeaveQuiz,
}

var routes = map[string]decodeFunc{
	MsgConnectToComputer:        decodeResource(ResourceComputer, true),
	MsgDisconnectFromComputer:   decodeResource(ResourceComputer, false),
	MsgConnectToWhiteboard:      decodeResource(ResourceWhiteboard, true),
	MsgDisconnectFromWhiteboard: decodeResource(ResourceWhiteboard, false),
	MsgStopScreenShare:          decodeStopScreenShare,
	MsgUpdatePlayer:             decodeUpdatePlayer,
	MsgUpdatePlayerName:         decodeUpdatePlayerName,
	MsgUpdatePlayerInfo:         decodeUpdatePlayerInfo,
	MsgReadyToConnect:           constant(SetPlayerReadiness{Flag: ReadyToConnect}),
	MsgVideoConnected:           constant(SetPlayerReadiness{Flag: VideoConnected}),
	MsgDisconnectStream:         decodeDisconnectStream,
	MsgAddChatMessage:           decodeAddChatMessage,
	MsgRequestQuiz:              constant(QuizJoinRequest{}),
	MsgLeaveQuiz:                constant(QuizLeaveRequest{}),
}

// validateRoutes checks that every inbound message has exactly one decoder.
func validateRoutes() error {
	for _, name := range inboundMessages {
		if routes[name] == nil {
			return fmt.Errorf("no route for message %q", name)
		}
	}
	if len(routes) != len(inboundMessages) {
		return fmt.Errorf("%d routes registered for %d inbound messages", len(routes), len(inboundMessages))
	}
	return nil
}

// decodeCommand turns a client message into a command. Unknown or malformed
// messages never reach the room.
func decodeCommand(msg *ClientMessage) (Command, error) {
	decode, ok := routes[msg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}

	cmd, err := decode(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errInvalidPayload, msg.Type, err)
	}
	return cmd, nil
}

func unmarshalPayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

func constant(cmd Command) decodeFunc {
	return func(json.RawMessage) (Command, error) {
		return cmd, nil
	}
}

type resourcePayload struct {
	ResourceId string `json:"resourceId"`
}

// Pointer fields tell a missing field apart from a zero value.
type updatePlayerPayload struct {
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Anim *string  `json:"anim"`
}

type updatePlayerNamePayload struct {
	Name *string `json:"name"`
}

type updatePlayerInfoPayload struct {
	Money *int `json:"money"`
	Score *int `json:"score"`
}

type disconnectStreamPayload struct {
	TargetSessionId string `json:"targetSessionId"`
}

type addChatMessagePayload struct {
	Content string `json:"content"`
}

func decodeResourceId(raw json.RawMessage) (string, error) {
	p, err := unmarshalPayload[resourcePayload](raw)
	if err != nil {
		return "", err
	}
	if p.ResourceId == "" {
		return "", errors.New("resourceId is required")
	}
	return p.ResourceId, nil
}

func decodeResource(kind ResourceKind, add bool) decodeFunc {
	return func(raw json.RawMessage) (Command, error) {
		id, err := decodeResourceId(raw)
		if err != nil {
			return nil, err
		}
		if add {
			return ResourceAddUser{Kind: kind, ResourceId: id}, nil
		}
		return ResourceRemoveUser{Kind: kind, ResourceId: id}, nil
	}
}

func decodeStopScreenShare(raw json.RawMessage) (Command, error) {
	id, err := decodeResourceId(raw)
	if err != nil {
		return nil, err
	}
	return StopScreenShare{ComputerId: id}, nil
}

func decodeUpdatePlayer(raw json.RawMessage) (Command, error) {
	p, err := unmarshalPayload[updatePlayerPayload](raw)
	if err != nil {
		return nil, err
	}
	if p.X == nil || p.Y == nil || p.Anim == nil {
		return nil, errors.New("x, y and anim are required")
	}
	return UpdatePlayerPosition{X: *p.X, Y: *p.Y, Anim: *p.Anim}, nil
}

func decodeUpdatePlayerName(raw json.RawMessage) (Command, error) {
	p, err := unmarshalPayload[updatePlayerNamePayload](raw)
	if err != nil {
		return nil, err
	}
	if p.Name == nil {
		return nil, errors.New("name is required")
	}
	return UpdatePlayerName{Name: *p.Name}, nil
}

func decodeUpdatePlayerInfo(raw json.RawMessage) (Command, error) {
	p, err := unmarshalPayload[updatePlayerInfoPayload](raw)
	if err != nil {
		return nil, err
	}
	if p.Money == nil || p.Score == nil {
		return nil, errors.New("money and score are required")
	}
	return UpdatePlayerInfo{Money: *p.Money, Score: *p.Score}, nil
}

func decodeDisconnectStream(raw json.RawMessage) (Command, error) {
	p, err := unmarshalPayload[disconnectStreamPayload](raw)
	if err != nil {
		return nil, err
	}
	if p.TargetSessionId == "" {
		return nil, errors.New("targetSessionId is required")
	}
	return DisconnectStream{TargetSessionId: p.TargetSessionId}, nil
}

func decodeAddChatMessage(raw json.RawMessage) (Command, error) {
	p, err := unmarshalPayload[addChatMessagePayload](raw)
	if err != nil {
		return nil, err
	}
	if p.Content == "" {
		return nil, errors.New("content is required")
	}
	return AddChatMessage{Content: p.Content}, nil
}
