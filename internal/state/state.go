// Package state holds the canonical, synchronized state tree of one office room.
//
// The store performs no validation. Callers serialize access to it and decide
// whether a mutation is allowed; the store only offers structural accessors.
package state

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/npezzotti/go-office/internal/types"
)

const (
	defaultX    = 705
	defaultY    = 500
	defaultAnim = "adam_idle_down"
)

type Phase string

const (
	PhasePreQuiz Phase = "PreQuiz"
	PhaseActive  Phase = "Active"
)

// NewPlayer returns a player positioned at the office spawn point.
func NewPlayer(sessionId string) *types.Player {
	return &types.Player{
		SessionId: sessionId,
		X:         defaultX,
		Y:         defaultY,
		Anim:      defaultAnim,
	}
}

// Resource is a shared interactive object (a computer or a whiteboard).
// Membership has no capacity limit.
type Resource struct {
	// RoomId identifies the external room reserved for a whiteboard. Empty for computers.
	RoomId         string
	connectedUsers map[string]struct{}
}

func NewResource(roomId string) *Resource {
	return &Resource{
		RoomId:         roomId,
		connectedUsers: make(map[string]struct{}),
	}
}

// Add reports whether sessionId was newly added.
func (r *Resource) Add(sessionId string) bool {
	if _, ok := r.connectedUsers[sessionId]; ok {
		return false
	}
	r.connectedUsers[sessionId] = struct{}{}
	return true
}

// Remove reports whether sessionId was present.
func (r *Resource) Remove(sessionId string) bool {
	if _, ok := r.connectedUsers[sessionId]; !ok {
		return false
	}
	delete(r.connectedUsers, sessionId)
	return true
}

func (r *Resource) Has(sessionId string) bool {
	_, ok := r.connectedUsers[sessionId]
	return ok
}

func (r *Resource) Len() int {
	return len(r.connectedUsers)
}

// Users returns the connected session ids in sorted order.
func (r *Resource) Users() []string {
	return slices.Sorted(maps.Keys(r.connectedUsers))
}

// QuizState is the single source of truth for the quiz mini-game.
type QuizState struct {
	Phase                 Phase
	CurrentQuestionNumber int
	PhaseStart            time.Time
	PhaseDuration         time.Duration
	participants          map[string]struct{}
}

// Deadline is the instant the current phase ends.
func (q *QuizState) Deadline() time.Time {
	return q.PhaseStart.Add(q.PhaseDuration)
}

// Remaining returns max(0, duration - (now - start)), never more than the phase duration.
func (q *QuizState) Remaining(now time.Time) time.Duration {
	if q.PhaseStart.IsZero() {
		return 0
	}
	elapsed := now.Sub(q.PhaseStart)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := q.PhaseDuration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (q *QuizState) AddParticipant(sessionId string) bool {
	if _, ok := q.participants[sessionId]; ok {
		return false
	}
	q.participants[sessionId] = struct{}{}
	return true
}

func (q *QuizState) RemoveParticipant(sessionId string) bool {
	if _, ok := q.participants[sessionId]; !ok {
		return false
	}
	delete(q.participants, sessionId)
	return true
}

func (q *QuizState) HasParticipant(sessionId string) bool {
	_, ok := q.participants[sessionId]
	return ok
}

func (q *QuizState) Participants() []string {
	return slices.Sorted(maps.Keys(q.participants))
}

// OfficeState is the mutable state tree of one room. It is not safe for
// concurrent use; the owning room serializes every read and write.
type OfficeState struct {
	players      map[string]*types.Player
	computers    map[string]*Resource
	whiteboards  map[string]*Resource
	chatMessages []types.ChatMessage
	Quiz         QuizState
}

func NewOfficeState() *OfficeState {
	return &OfficeState{
		players:     make(map[string]*types.Player),
		computers:   make(map[string]*Resource),
		whiteboards: make(map[string]*Resource),
		Quiz: QuizState{
			participants: make(map[string]struct{}),
		},
	}
}

func (s *OfficeState) Player(sessionId string) (*types.Player, bool) {
	p, ok := s.players[sessionId]
	return p, ok
}

func (s *OfficeState) SetPlayer(sessionId string, p *types.Player) {
	s.players[sessionId] = p
}

// DeletePlayer reports whether a player was removed.
func (s *OfficeState) DeletePlayer(sessionId string) bool {
	if _, ok := s.players[sessionId]; !ok {
		return false
	}
	delete(s.players, sessionId)
	return true
}

func (s *OfficeState) Players() iter.Seq2[string, *types.Player] {
	return maps.All(s.players)
}

func (s *OfficeState) PlayerCount() int {
	return len(s.players)
}

func (s *OfficeState) Computer(id string) (*Resource, bool) {
	r, ok := s.computers[id]
	return r, ok
}

func (s *OfficeState) SetComputer(id string, r *Resource) {
	s.computers[id] = r
}

func (s *OfficeState) Computers() iter.Seq2[string, *Resource] {
	return maps.All(s.computers)
}

func (s *OfficeState) Whiteboard(id string) (*Resource, bool) {
	r, ok := s.whiteboards[id]
	return r, ok
}

func (s *OfficeState) SetWhiteboard(id string, r *Resource) {
	s.whiteboards[id] = r
}

func (s *OfficeState) Whiteboards() iter.Seq2[string, *Resource] {
	return maps.All(s.whiteboards)
}

// AppendChatMessage appends msg to the chat log. A positive limit caps the
// log by dropping the oldest entries.
func (s *OfficeState) AppendChatMessage(msg types.ChatMessage, limit int) {
	s.chatMessages = append(s.chatMessages, msg)
	if limit > 0 && len(s.chatMessages) > limit {
		s.chatMessages = slices.Delete(s.chatMessages, 0, len(s.chatMessages)-limit)
	}
}

func (s *OfficeState) ChatMessages() []types.ChatMessage {
	return slices.Clone(s.chatMessages)
}

// Snapshot returns a deep copy of the state tree safe to hand to the transport.
func (s *OfficeState) Snapshot() types.OfficeState {
	snap := types.OfficeState{
		Players:      make(map[string]types.Player, len(s.players)),
		Computers:    make(map[string]types.Resource, len(s.computers)),
		Whiteboards:  make(map[string]types.Resource, len(s.whiteboards)),
		ChatMessages: s.ChatMessages(),
		Quiz: types.Quiz{
			Phase:                 string(s.Quiz.Phase),
			CurrentQuestionNumber: s.Quiz.CurrentQuestionNumber,
			PhaseStart:            s.Quiz.PhaseStart,
			PhaseDurationMs:       s.Quiz.PhaseDuration.Milliseconds(),
			Participants:          s.Quiz.Participants(),
		},
	}

	for id, p := range s.players {
		snap.Players[id] = *p
	}
	for id, c := range s.computers {
		snap.Computers[id] = types.Resource{Id: id, ConnectedUsers: c.Users()}
	}
	for id, w := range s.whiteboards {
		snap.Whiteboards[id] = types.Resource{Id: id, RoomId: w.RoomId, ConnectedUsers: w.Users()}
	}
	if snap.ChatMessages == nil {
		snap.ChatMessages = []types.ChatMessage{}
	}

	return snap
}
