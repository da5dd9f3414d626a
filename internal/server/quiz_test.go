package server

import (
	"testing"
	"time"

	"github.com/npezzotti/go-office/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*quizScheduler, *state.OfficeState, *fakeClock) {
	clock := newFakeClock()
	picks := 0
	q := newQuizScheduler(DefaultQuizConfig(), clock.Now, func(n int) int {
		picks++
		return picks % n
	})
	t.Cleanup(q.stop)

	st := state.NewOfficeState()
	q.start(st)
	return q, st, clock
}

func TestQuizScheduler_Cycle(t *testing.T) {
	q, st, clock := newTestScheduler(t)

	assert.Equal(t, state.PhasePreQuiz, st.Quiz.Phase)
	assert.Equal(t, 3*time.Second, st.Quiz.Remaining(clock.Now()))
	require.NotNil(t, q.C(), "expected wakeup to be armed")

	clock.Advance(3 * time.Second)
	res := q.advance(st)
	assert.True(t, res.changed)
	assert.Equal(t, state.PhaseActive, st.Quiz.Phase)
	assert.Contains(t, []int{1, 2, 3}, st.Quiz.CurrentQuestionNumber)
	require.Len(t, res.effects, 1)
	assert.Empty(t, res.effects[0].To, "expected start to be broadcast")
	assert.Equal(t, MsgStartQuiz, res.effects[0].Message.Type)
	assert.Equal(t, startQuizPayload{QuestionNumber: st.Quiz.CurrentQuestionNumber, DurationMs: 10000}, res.effects[0].Message.Payload)

	// remaining Active time decreases and stays within bounds
	prev := st.Quiz.Remaining(clock.Now())
	assert.Equal(t, 10*time.Second, prev)
	for range 5 {
		clock.Advance(time.Second)
		cur := st.Quiz.Remaining(clock.Now())
		assert.Less(t, cur, prev)
		assert.GreaterOrEqual(t, cur, time.Duration(0))
		prev = cur
	}

	question := st.Quiz.CurrentQuestionNumber
	clock.Advance(5 * time.Second)
	res = q.advance(st)
	assert.True(t, res.changed)
	assert.Equal(t, state.PhasePreQuiz, st.Quiz.Phase, "expected the next countdown to begin immediately")
	require.Len(t, res.effects, 1)
	assert.Equal(t, MsgEndQuiz, res.effects[0].Message.Type)
	assert.Equal(t, endQuizPayload{QuestionNumber: question}, res.effects[0].Message.Payload)
	assert.Equal(t, 3*time.Second, st.Quiz.Remaining(clock.Now()))
}

func TestQuizScheduler_EarlyWakeup(t *testing.T) {
	q, st, clock := newTestScheduler(t)

	clock.Advance(time.Second)
	res := q.advance(st)
	assert.False(t, res.changed, "expected early wakeup to change nothing")
	assert.Empty(t, res.effects)
	assert.Equal(t, state.PhasePreQuiz, st.Quiz.Phase)
	assert.NotNil(t, q.C(), "expected wakeup to be re-armed")
}

func TestQuizScheduler_Stop(t *testing.T) {
	q, st, clock := newTestScheduler(t)

	q.stop()
	assert.Nil(t, q.C(), "expected no wakeup after stop")

	clock.Advance(time.Minute)
	res := q.advance(st)
	assert.False(t, res.changed, "expected stopped scheduler never to transition")
	assert.Equal(t, state.PhasePreQuiz, st.Quiz.Phase)
}

func TestQuizScheduler_Resume(t *testing.T) {
	clock := newFakeClock()
	st := state.NewOfficeState()
	st.Quiz.Phase = state.PhaseActive
	st.Quiz.CurrentQuestionNumber = 2
	st.Quiz.PhaseStart = clock.Now().Add(-4 * time.Second)
	st.Quiz.PhaseDuration = 10 * time.Second

	q := newQuizScheduler(DefaultQuizConfig(), clock.Now, func(int) int { return 0 })
	t.Cleanup(q.stop)
	q.start(st)

	assert.Equal(t, state.PhaseActive, st.Quiz.Phase, "expected the running phase to be kept")
	assert.Equal(t, 2, st.Quiz.CurrentQuestionNumber)
	assert.NotNil(t, q.C())
}

func Test_quizJoinRequest(t *testing.T) {
	cfg := DefaultQuizConfig()
	start := newFakeClock().Now()

	t.Run("active phase grants immediate join", func(t *testing.T) {
		st := state.NewOfficeState()
		st.SetPlayer("a", state.NewPlayer("a"))
		st.Quiz.Phase = state.PhaseActive
		st.Quiz.CurrentQuestionNumber = 3
		st.Quiz.PhaseStart = start
		st.Quiz.PhaseDuration = cfg.QuizDuration

		ctx := &commandContext{state: st, sender: "a", now: start.Add(6 * time.Second), quiz: cfg}
		res := apply(ctx, QuizJoinRequest{})

		assert.True(t, res.changed)
		assert.True(t, st.Quiz.HasParticipant("a"))
		require.Len(t, res.effects, 2)
		assert.Equal(t, "a", res.effects[0].To)
		assert.Equal(t, MsgPlayerJoinQuiz, res.effects[0].Message.Type)
		assert.Equal(t, joinQuizPayload{QuestionNumber: 3, RemainingTime: 4.0}, res.effects[0].Message.Payload)
		assert.Empty(t, res.effects[1].To)
		assert.Equal(t, participantsPayload{Participants: []string{"a"}}, res.effects[1].Message.Payload)
	})

	t.Run("prequiz phase says wait", func(t *testing.T) {
		st := state.NewOfficeState()
		st.SetPlayer("a", state.NewPlayer("a"))
		st.Quiz.Phase = state.PhasePreQuiz
		st.Quiz.PhaseStart = start
		st.Quiz.PhaseDuration = cfg.PreQuizDuration

		ctx := &commandContext{state: st, sender: "a", now: start.Add(2 * time.Second), quiz: cfg}
		res := apply(ctx, QuizJoinRequest{})

		require.NotEmpty(t, res.effects)
		assert.Equal(t, MsgWaitForNextQuiz, res.effects[0].Message.Type)
		payload, ok := res.effects[0].Message.Payload.(waitQuizPayload)
		require.True(t, ok)
		assert.InDelta(t, 1.0, payload.TimeUntilNextQuiz, 1e-9)
		assert.InDelta(t, (10000.0+1000.0)/1000.0, payload.NextQuizEndsIn, 1e-9)
	})

	t.Run("repeat request does not rebroadcast the roster", func(t *testing.T) {
		st := state.NewOfficeState()
		st.SetPlayer("a", state.NewPlayer("a"))
		st.Quiz.Phase = state.PhasePreQuiz
		st.Quiz.PhaseStart = start
		st.Quiz.PhaseDuration = cfg.PreQuizDuration
		st.Quiz.AddParticipant("a")

		res := apply(&commandContext{state: st, sender: "a", now: start, quiz: cfg}, QuizJoinRequest{})
		assert.False(t, res.changed)
		assert.Len(t, res.effects, 1)
	})

	t.Run("unknown player is ignored", func(t *testing.T) {
		st := state.NewOfficeState()
		res := apply(&commandContext{state: st, sender: "ghost", now: start, quiz: cfg}, QuizJoinRequest{})
		assert.Equal(t, result{}, res)
		assert.Empty(t, st.Quiz.Participants())
	})
}

func Test_quizLeaveRequest(t *testing.T) {
	st := state.NewOfficeState()
	st.Quiz.AddParticipant("a")
	st.Quiz.AddParticipant("b")

	res := apply(&commandContext{state: st, sender: "a"}, QuizLeaveRequest{})
	assert.True(t, res.changed)
	assert.Equal(t, []string{"b"}, st.Quiz.Participants())
	require.Len(t, res.effects, 2)
	assert.Equal(t, unicast("a", res.effects[0].Message), res.effects[0])
	assert.Equal(t, MsgLeftQuiz, res.effects[0].Message.Type)
	assert.Equal(t, "a", res.effects[1].Except)
	assert.Equal(t, relayPayload{ClientId: "a"}, res.effects[1].Message.Payload)

	// leaving again only confirms
	res = apply(&commandContext{state: st, sender: "a"}, QuizLeaveRequest{})
	assert.False(t, res.changed)
	assert.Len(t, res.effects, 1)
}
