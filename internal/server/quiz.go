package server

import (
	"time"

	"github.com/npezzotti/go-office/internal/state"
)

type QuizConfig struct {
	PreQuizDuration time.Duration
	QuizDuration    time.Duration
	// QuestionCount is the size of the question range. Questions are numbered from 1.
	QuestionCount int
}

func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		PreQuizDuration: 3 * time.Second,
		QuizDuration:    10 * time.Second,
		QuestionCount:   3,
	}
}

// quizScheduler drives the PreQuiz -> Active -> PreQuiz cycle. All phase data
// lives in the state tree; the scheduler only owns the wakeup timer. It is
// driven from the room loop and is not safe for concurrent use.
type quizScheduler struct {
	cfg     QuizConfig
	now     func() time.Time
	pick    func(n int) int
	timer   *time.Timer
	stopped bool
}

func newQuizScheduler(cfg QuizConfig, now func() time.Time, pick func(n int) int) *quizScheduler {
	return &quizScheduler{
		cfg:  cfg,
		now:  now,
		pick: pick,
	}
}

// C is the wakeup channel. It is nil, and blocks forever in a select, while
// nothing is armed.
func (q *quizScheduler) C() <-chan time.Time {
	if q.timer == nil || q.stopped {
		return nil
	}
	return q.timer.C
}

// start enters the first PreQuiz phase. If the state tree already carries a
// phase, the pending transition is re-armed from it instead.
func (q *quizScheduler) start(st *state.OfficeState) {
	if st.Quiz.Phase == "" {
		q.enterPreQuiz(st)
		return
	}
	q.arm(st.Quiz.Remaining(q.now()))
}

func (q *quizScheduler) enterPreQuiz(st *state.OfficeState) {
	st.Quiz.Phase = state.PhasePreQuiz
	st.Quiz.PhaseStart = q.now()
	st.Quiz.PhaseDuration = q.cfg.PreQuizDuration
	q.arm(q.cfg.PreQuizDuration)
}

func (q *quizScheduler) enterActive(st *state.OfficeState) {
	st.Quiz.Phase = state.PhaseActive
	st.Quiz.CurrentQuestionNumber = q.pick(q.cfg.QuestionCount) + 1
	st.Quiz.PhaseStart = q.now()
	st.Quiz.PhaseDuration = q.cfg.QuizDuration
	q.arm(q.cfg.QuizDuration)
}

// advance performs the transition due when the wakeup fires. A wakeup that
// arrives before the phase deadline only re-arms the timer, and nothing
// happens once the scheduler is stopped.
func (q *quizScheduler) advance(st *state.OfficeState) result {
	if q.stopped {
		return result{}
	}

	if remaining := st.Quiz.Remaining(q.now()); remaining > 0 {
		q.arm(remaining)
		return result{}
	}

	switch st.Quiz.Phase {
	case state.PhasePreQuiz:
		q.enterActive(st)
		msg := newMessage(MsgStartQuiz, startQuizPayload{
			QuestionNumber: st.Quiz.CurrentQuestionNumber,
			DurationMs:     q.cfg.QuizDuration.Milliseconds(),
		})
		return result{effects: []Effect{broadcast(msg, "")}, changed: true}
	case state.PhaseActive:
		msg := newMessage(MsgEndQuiz, endQuizPayload{
			QuestionNumber: st.Quiz.CurrentQuestionNumber,
		})
		q.enterPreQuiz(st)
		return result{effects: []Effect{broadcast(msg, "")}, changed: true}
	default:
		q.enterPreQuiz(st)
		return result{changed: true}
	}
}

// stop cancels the pending wakeup. A stopped scheduler never transitions again.
func (q *quizScheduler) stop() {
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
	}
}

func (q *quizScheduler) arm(d time.Duration) {
	if q.stopped {
		return
	}
	if q.timer == nil {
		q.timer = time.NewTimer(d)
		return
	}
	q.timer.Stop()
	q.timer.Reset(d)
}

func quizJoinRequest(ctx *commandContext) result {
	if _, ok := ctx.state.Player(ctx.sender); !ok {
		return result{}
	}

	quiz := &ctx.state.Quiz
	added := quiz.AddParticipant(ctx.sender)
	remaining := quiz.Remaining(ctx.now)

	var status *ServerMessage
	if quiz.Phase == state.PhaseActive {
		status = newMessage(MsgPlayerJoinQuiz, joinQuizPayload{
			QuestionNumber: quiz.CurrentQuestionNumber,
			RemainingTime:  remaining.Seconds(),
		})
	} else {
		status = newMessage(MsgWaitForNextQuiz, waitQuizPayload{
			TimeUntilNextQuiz: remaining.Seconds(),
			NextQuizEndsIn:    (remaining + ctx.quiz.QuizDuration).Seconds(),
		})
	}

	effects := []Effect{unicast(ctx.sender, status)}
	if added {
		effects = append(effects, broadcast(participantsMessage(quiz), ""))
	}
	return result{effects: effects, changed: added}
}

func quizLeaveRequest(ctx *commandContext) result {
	removed := ctx.state.Quiz.RemoveParticipant(ctx.sender)

	effects := []Effect{unicast(ctx.sender, newMessage(MsgLeftQuiz, struct{}{}))}
	if removed {
		left := newMessage(MsgPlayerLeftQuiz, relayPayload{ClientId: ctx.sender})
		effects = append(effects, broadcast(left, ctx.sender))
	}
	return result{effects: effects, changed: removed}
}

func participantsMessage(quiz *state.QuizState) *ServerMessage {
	participants := quiz.Participants()
	if participants == nil {
		participants = []string{}
	}
	return newMessage(MsgQuizParticipants, participantsPayload{Participants: participants})
}
