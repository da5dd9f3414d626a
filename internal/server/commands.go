package server

import (
	"time"

	"github.com/npezzotti/go-office/internal/state"
	"github.com/npezzotti/go-office/internal/types"
)

// Command is a validated unit of state mutation. The set of commands is
// closed: every implementation lives in this file and is matched in apply.
type Command interface {
	command()
}

type UpdatePlayerPosition struct {
	X, Y float64
	Anim string
}

type UpdatePlayerName struct {
	Name string
}

type UpdatePlayerInfo struct {
	Money, Score int
}

type ReadinessFlag int

const (
	ReadyToConnect ReadinessFlag = iota
	VideoConnected
)

type SetPlayerReadiness struct {
	Flag ReadinessFlag
}

type AddChatMessage struct {
	Content string
}

type ResourceAddUser struct {
	Kind       ResourceKind
	ResourceId string
}

type ResourceRemoveUser struct {
	Kind       ResourceKind
	ResourceId string
}

type StopScreenShare struct {
	ComputerId string
}

type DisconnectStream struct {
	TargetSessionId string
}

type QuizJoinRequest struct{}

type QuizLeaveRequest struct{}

func (UpdatePlayerPosition) command() {}
func (UpdatePlayerName) command()     {}
func (UpdatePlayerInfo) command()     {}
func (SetPlayerReadiness) command()   {}
func (AddChatMessage) command()       {}
func (ResourceAddUser) command()      {}
func (ResourceRemoveUser) command()   {}
func (StopScreenShare) command()      {}
func (DisconnectStream) command()     {}
func (QuizJoinRequest) command()      {}
func (QuizLeaveRequest) command()     {}

// Effect is an outbound message produced by a command or a timer transition.
type Effect struct {
	// To is the recipient session id. Empty means every client of the room.
	To string
	// Except is skipped when broadcasting.
	Except  string
	Message *ServerMessage
}

func broadcast(msg *ServerMessage, except string) Effect {
	return Effect{Except: except, Message: msg}
}

func unicast(to string, msg *ServerMessage) Effect {
	return Effect{To: to, Message: msg}
}

// result is the outcome of applying one command. changed marks the state
// tree dirty so the next patch carries it to clients.
type result struct {
	effects []Effect
	changed bool
}

type commandContext struct {
	state        *state.OfficeState
	sender       string
	now          time.Time
	chatLogLimit int
	quiz         QuizConfig
}

// apply runs cmd against the state tree. A command whose target no longer
// exists is a silent no-op.
func apply(ctx *commandContext, cmd Command) result {
	switch c := cmd.(type) {
	case UpdatePlayerPosition:
		return updatePlayerPosition(ctx, c)
	case UpdatePlayerName:
		return updatePlayerName(ctx, c)
	case UpdatePlayerInfo:
		return updatePlayerInfo(ctx, c)
	case SetPlayerReadiness:
		return setPlayerReadiness(ctx, c)
	case AddChatMessage:
		return addChatMessage(ctx, c)
	case ResourceAddUser:
		return resourceAddUser(ctx, c)
	case ResourceRemoveUser:
		return resourceRemoveUser(ctx, c)
	case StopScreenShare:
		return stopScreenShare(ctx, c)
	case DisconnectStream:
		return disconnectStream(ctx, c)
	case QuizJoinRequest:
		return quizJoinRequest(ctx)
	case QuizLeaveRequest:
		return quizLeaveRequest(ctx)
	default:
		return result{}
	}
}

func updatePlayerPosition(ctx *commandContext, c UpdatePlayerPosition) result {
	p, ok := ctx.state.Player(ctx.sender)
	if !ok {
		return result{}
	}

	p.X = c.X
	p.Y = c.Y
	p.Anim = c.Anim
	return result{changed: true}
}

func updatePlayerName(ctx *commandContext, c UpdatePlayerName) result {
	p, ok := ctx.state.Player(ctx.sender)
	if !ok {
		return result{}
	}

	p.Name = c.Name
	return result{changed: true}
}

func updatePlayerInfo(ctx *commandContext, c UpdatePlayerInfo) result {
	p, ok := ctx.state.Player(ctx.sender)
	if !ok {
		return result{}
	}

	p.Money = c.Money
	p.Score = c.Score
	return result{changed: true}
}

func setPlayerReadiness(ctx *commandContext, c SetPlayerReadiness) result {
	p, ok := ctx.state.Player(ctx.sender)
	if !ok {
		return result{}
	}

	switch c.Flag {
	case ReadyToConnect:
		p.ReadyToConnect = true
	case VideoConnected:
		p.VideoConnected = true
	default:
		return result{}
	}
	return result{changed: true}
}

func addChatMessage(ctx *commandContext, c AddChatMessage) result {
	var author string
	if p, ok := ctx.state.Player(ctx.sender); ok {
		author = p.Name
	}

	ctx.state.AppendChatMessage(types.ChatMessage{
		SenderId:  ctx.sender,
		Author:    author,
		Content:   c.Content,
		CreatedAt: ctx.now,
	}, ctx.chatLogLimit)

	// the sender renders its own bubble locally
	relay := newMessage(MsgAddChatMessage, chatRelayPayload{
		ClientId: ctx.sender,
		Content:  c.Content,
	})
	return result{
		effects: []Effect{broadcast(relay, ctx.sender)},
		changed: true,
	}
}

func disconnectStream(ctx *commandContext, c DisconnectStream) result {
	if c.TargetSessionId == ctx.sender {
		return result{}
	}

	msg := newMessage(MsgDisconnectStream, relayPayload{ClientId: ctx.sender})
	return result{effects: []Effect{unicast(c.TargetSessionId, msg)}}
}
