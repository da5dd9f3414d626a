package server

import (
	"fmt"

	"github.com/npezzotti/go-office/internal/state"
)

const (
	numComputers   = 5
	numWhiteboards = 4
)

type ResourceKind string

const (
	ResourceComputer   ResourceKind = "computer"
	ResourceWhiteboard ResourceKind = "whiteboard"
)

// seedResources creates the fixed set of computers and whiteboards. Each
// whiteboard gets an external room id from reserve.
func seedResources(st *state.OfficeState, reserve func() (string, error)) ([]string, error) {
	for i := range numComputers {
		st.SetComputer(fmt.Sprint(i), state.NewResource(""))
	}

	reserved := make([]string, 0, numWhiteboards)
	for i := range numWhiteboards {
		roomId, err := reserve()
		if err != nil {
			return reserved, fmt.Errorf("reserve whiteboard %d: %w", i, err)
		}
		reserved = append(reserved, roomId)
		st.SetWhiteboard(fmt.Sprint(i), state.NewResource(roomId))
	}

	return reserved, nil
}

func lookupResource(st *state.OfficeState, kind ResourceKind, id string) (*state.Resource, bool) {
	switch kind {
	case ResourceComputer:
		return st.Computer(id)
	case ResourceWhiteboard:
		return st.Whiteboard(id)
	default:
		return nil, false
	}
}

func resourceAddUser(ctx *commandContext, c ResourceAddUser) result {
	// membership may only reference players present in the room
	if _, ok := ctx.state.Player(ctx.sender); !ok {
		return result{}
	}

	r, ok := lookupResource(ctx.state, c.Kind, c.ResourceId)
	if !ok {
		return result{}
	}

	return result{changed: r.Add(ctx.sender)}
}

func resourceRemoveUser(ctx *commandContext, c ResourceRemoveUser) result {
	r, ok := lookupResource(ctx.state, c.Kind, c.ResourceId)
	if !ok {
		return result{}
	}

	return result{changed: r.Remove(ctx.sender)}
}

// stopScreenShare notifies everyone watching the sender's computer. It does
// not change membership.
func stopScreenShare(ctx *commandContext, c StopScreenShare) result {
	computer, ok := ctx.state.Computer(c.ComputerId)
	if !ok {
		return result{}
	}

	msg := newMessage(MsgStopScreenShare, relayPayload{ClientId: ctx.sender})

	var effects []Effect
	for _, id := range computer.Users() {
		if id == ctx.sender {
			continue
		}
		effects = append(effects, unicast(id, msg))
	}
	return result{effects: effects}
}

// removeUserFromAllResources scans every computer and whiteboard and drops
// sessionId from each. It returns the number of memberships removed.
func removeUserFromAllResources(st *state.OfficeState, sessionId string) int {
	var removed int
	for _, c := range st.Computers() {
		if c.Remove(sessionId) {
			removed++
		}
	}
	for _, w := range st.Whiteboards() {
		if w.Remove(sessionId) {
			removed++
		}
	}
	return removed
}
