package server

import (
	"testing"
	"time"

	"github.com/npezzotti/go-office/internal/state"
	"github.com/npezzotti/go-office/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(players ...string) *state.OfficeState {
	st := state.NewOfficeState()
	for _, id := range players {
		st.SetPlayer(id, state.NewPlayer(id))
	}
	return st
}

func Test_applyPlayerCommands(t *testing.T) {
	tcases := []struct {
		name   string
		cmd    Command
		assert func(t *testing.T, p *types.Player)
	}{
		{
			name: "update position",
			cmd:  UpdatePlayerPosition{X: 10, Y: 20, Anim: "adam_run_left"},
			assert: func(t *testing.T, p *types.Player) {
				assert.Equal(t, float64(10), p.X)
				assert.Equal(t, float64(20), p.Y)
				assert.Equal(t, "adam_run_left", p.Anim)
			},
		},
		{
			name: "update name",
			cmd:  UpdatePlayerName{Name: "alice"},
			assert: func(t *testing.T, p *types.Player) {
				assert.Equal(t, "alice", p.Name)
			},
		},
		{
			name: "update info",
			cmd:  UpdatePlayerInfo{Money: 12, Score: 3},
			assert: func(t *testing.T, p *types.Player) {
				assert.Equal(t, 12, p.Money)
				assert.Equal(t, 3, p.Score)
			},
		},
		{
			name: "ready to connect",
			cmd:  SetPlayerReadiness{Flag: ReadyToConnect},
			assert: func(t *testing.T, p *types.Player) {
				assert.True(t, p.ReadyToConnect)
				assert.False(t, p.VideoConnected)
			},
		},
		{
			name: "video connected",
			cmd:  SetPlayerReadiness{Flag: VideoConnected},
			assert: func(t *testing.T, p *types.Player) {
				assert.True(t, p.VideoConnected)
				assert.False(t, p.ReadyToConnect)
			},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			st := newTestState("a")
			res := apply(&commandContext{state: st, sender: "a"}, tc.cmd)
			assert.True(t, res.changed, "expected state to change")
			assert.Empty(t, res.effects, "expected no messages")

			p, ok := st.Player("a")
			require.True(t, ok)
			tc.assert(t, p)
		})

		t.Run(tc.name+" on missing player", func(t *testing.T) {
			st := newTestState()
			res := apply(&commandContext{state: st, sender: "a"}, tc.cmd)
			assert.Equal(t, result{}, res, "expected a silent no-op")
			assert.Zero(t, st.PlayerCount())
		})
	}
}

func Test_addChatMessage(t *testing.T) {
	st := newTestState("a", "b")
	p, _ := st.Player("a")
	p.Name = "alice"
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	res := apply(&commandContext{state: st, sender: "a", now: now}, AddChatMessage{Content: "hi"})

	assert.True(t, res.changed)
	assert.Equal(t, []types.ChatMessage{{SenderId: "a", Author: "alice", Content: "hi", CreatedAt: now}}, st.ChatMessages())
	require.Len(t, res.effects, 1)
	assert.Equal(t, "a", res.effects[0].Except, "expected the sender to be excluded from the relay")
	assert.Equal(t, MsgAddChatMessage, res.effects[0].Message.Type)
	assert.Equal(t, chatRelayPayload{ClientId: "a", Content: "hi"}, res.effects[0].Message.Payload)
}

func Test_addChatMessage_limit(t *testing.T) {
	st := newTestState("a")
	ctx := &commandContext{state: st, sender: "a", chatLogLimit: 2}
	for _, content := range []string{"one", "two", "three"} {
		apply(ctx, AddChatMessage{Content: content})
	}

	msgs := st.ChatMessages()
	require.Len(t, msgs, 2, "expected the log to be capped")
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "three", msgs[1].Content)
}

func Test_disconnectStream(t *testing.T) {
	st := newTestState("a", "b")

	res := apply(&commandContext{state: st, sender: "a"}, DisconnectStream{TargetSessionId: "b"})
	assert.False(t, res.changed, "expected relay not to touch state")
	require.Len(t, res.effects, 1)
	assert.Equal(t, "b", res.effects[0].To)
	assert.Equal(t, MsgDisconnectStream, res.effects[0].Message.Type)
	assert.Equal(t, relayPayload{ClientId: "a"}, res.effects[0].Message.Payload)

	res = apply(&commandContext{state: st, sender: "a"}, DisconnectStream{TargetSessionId: "a"})
	assert.Empty(t, res.effects, "expected no relay to oneself")
}
