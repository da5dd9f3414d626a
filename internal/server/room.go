package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/npezzotti/go-office/internal/auth"
	"github.com/npezzotti/go-office/internal/state"
	"github.com/npezzotti/go-office/internal/stats"
	"github.com/npezzotti/go-office/internal/types"
)

const (
	maxRoomNameLength        = 64
	maxRoomDescriptionLength = 256
	inboxSize                = 256
)

type RoomStatus int32

const (
	RoomCreated RoomStatus = iota
	RoomActive
	RoomDisposing
	RoomDisposed
)

func (s RoomStatus) String() string {
	switch s {
	case RoomCreated:
		return "created"
	case RoomActive:
		return "active"
	case RoomDisposing:
		return "disposing"
	case RoomDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("RoomStatus(%d)", int32(s))
	}
}

type RoomOptions struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Password    string `json:"password,omitempty"`
	AutoDispose bool   `json:"autoDispose"`
}

func (o RoomOptions) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRoomOptions)
	}
	if utf8.RuneCountInString(o.Name) > maxRoomNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidRoomOptions, maxRoomNameLength)
	}
	if utf8.RuneCountInString(o.Description) > maxRoomDescriptionLength {
		return fmt.Errorf("%w: description is longer than %d characters", ErrInvalidRoomOptions, maxRoomDescriptionLength)
	}
	if len(o.Password) > auth.MaxPasswordLength {
		return fmt.Errorf("%w: password is longer than %d bytes", ErrInvalidRoomOptions, auth.MaxPasswordLength)
	}
	return nil
}

// inboxItem is one ordered event for the room loop. Exactly one field is set.
type inboxItem struct {
	join  *Client
	leave *Client
	msg   *ClientMessage
}

// Room is one authoritative instance of the office. Every mutation of its
// state runs on the goroutine started by start.
type Room struct {
	id           string
	name         string
	description  string
	passwordHash string
	autoDispose  bool
	createdAt    time.Time

	log          *log.Logger
	stats        stats.StatsProvider
	cfg          RoomConfig
	now          func() time.Time
	reservations *reservationRegistry
	unload       func(id string)

	state         *state.OfficeState
	quiz          *quizScheduler
	whiteboardIds []string
	clients       map[string]*Client
	dirty         bool
	// killTimer disposes an auto-dispose room that nobody joins
	killTimer *time.Timer

	clientCount atomic.Int32
	status      atomic.Int32
	inbox       chan inboxItem
	exit        chan struct{}
	done        chan struct{}
}

func newRoom(cs *OfficeServer, id string, opts RoomOptions) (*Room, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var passwordHash string
	if opts.Password != "" {
		hash, err := auth.HashPassword(opts.Password)
		if err != nil {
			return nil, fmt.Errorf("room password: %w", err)
		}
		passwordHash = hash
	}

	r := &Room{
		id:           id,
		name:         opts.Name,
		description:  opts.Description,
		passwordHash: passwordHash,
		autoDispose:  opts.AutoDispose,
		createdAt:    cs.now(),
		log:          cs.log,
		stats:        cs.stats,
		cfg:          cs.cfg,
		now:          cs.now,
		reservations: cs.reservations,
		unload:       cs.unloadRoom,
		state:        state.NewOfficeState(),
		clients:      make(map[string]*Client),
		inbox:        make(chan inboxItem, inboxSize),
		exit:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	ids, err := seedResources(r.state, cs.reservations.reserve)
	if err != nil {
		cs.reservations.release(ids...)
		return nil, err
	}
	r.whiteboardIds = ids

	r.quiz = newQuizScheduler(cs.cfg.Quiz, cs.now, cs.pick)
	r.quiz.start(r.state)

	if r.autoDispose {
		r.killTimer = time.NewTimer(cs.cfg.IdleRoomTimeout)
	}

	return r, nil
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) Status() RoomStatus {
	return RoomStatus(r.status.Load())
}

// Done is closed once the room is disposed.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

func (r *Room) Listing() types.RoomListing {
	return types.RoomListing{
		Id:          r.id,
		Name:        r.name,
		Description: r.description,
		HasPassword: r.passwordHash != "",
		Clients:     int(r.clientCount.Load()),
		CreatedAt:   r.createdAt,
	}
}

// Authenticate checks a joining client's password. It only reads fields fixed
// at creation, so it runs on the caller's goroutine and never holds up the room.
func (r *Room) Authenticate(password string) error {
	if r.Status() >= RoomDisposing {
		return ErrRoomDisposed
	}
	if r.passwordHash == "" {
		return nil
	}
	if !auth.VerifyPassword(r.passwordHash, password) {
		return ErrIncorrectPassword
	}
	return nil
}

// Join queues c to become a player. It blocks while the inbox is full.
func (r *Room) Join(c *Client) error {
	return r.enqueue(inboxItem{join: c})
}

// Leave queues the removal of c. It blocks while the inbox is full.
func (r *Room) Leave(c *Client) error {
	return r.enqueue(inboxItem{leave: c})
}

// Dispatch queues a decoded client message. Unlike Join and Leave it never
// blocks: a full inbox rejects the message.
func (r *Room) Dispatch(msg *ClientMessage) error {
	select {
	case <-r.done:
		return ErrRoomDisposed
	default:
	}

	select {
	case r.inbox <- inboxItem{msg: msg}:
		return nil
	case <-r.done:
		return ErrRoomDisposed
	default:
		return errInboxFull
	}
}

func (r *Room) enqueue(item inboxItem) error {
	select {
	case <-r.done:
		return ErrRoomDisposed
	default:
	}

	select {
	case r.inbox <- item:
		return nil
	case <-r.done:
		return ErrRoomDisposed
	}
}

// Dispose asks the room loop to shut down and waits for it.
func (r *Room) Dispose(ctx context.Context) error {
	select {
	case r.exit <- struct{}{}:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.id)
	r.status.Store(int32(RoomActive))

	patchTicker := time.NewTicker(r.cfg.PatchInterval)
	defer patchTicker.Stop()

	for {
		select {
		case item := <-r.inbox:
			switch {
			case item.join != nil:
				r.handleJoin(item.join)
			case item.leave != nil:
				r.handleLeave(item.leave)
			case item.msg != nil:
				r.handleMessage(item.msg)
			}
		case <-r.quiz.C():
			r.handleQuizWakeup()
		case <-patchTicker.C:
			r.flushState()
		case <-r.killTimerC():
			r.handleRoomTimeout()
		case <-r.exit:
			r.dispose()
		}

		if r.Status() == RoomDisposed {
			return
		}
	}
}

func (r *Room) killTimerC() <-chan time.Time {
	if r.killTimer == nil {
		return nil
	}
	return r.killTimer.C
}

func (r *Room) handleJoin(c *Client) {
	if r.killTimer != nil {
		r.killTimer.Stop()
	}

	id := c.sessionId
	if _, ok := r.clients[id]; ok {
		r.log.Printf("client %q already in room %q", id, r.id)
		return
	}

	r.clients[id] = c
	r.clientCount.Store(int32(len(r.clients)))
	r.state.SetPlayer(id, state.NewPlayer(id))
	r.dirty = true
	r.stats.Incr(stats.NumConnectedClients)
	r.log.Printf("client %q joined room %q", id, r.id)

	c.queueMessage(newMessage(MsgRoomData, types.Room{
		Id:          r.id,
		Name:        r.name,
		Description: r.description,
	}))
	c.queueMessage(newMessage(MsgState, r.state.Snapshot()))
}

// handleLeave removes every trace of the client: its player, its resource
// memberships and its quiz participation.
func (r *Room) handleLeave(c *Client) {
	id := c.sessionId
	if _, ok := r.clients[id]; !ok {
		return
	}

	delete(r.clients, id)
	r.clientCount.Store(int32(len(r.clients)))
	r.state.DeletePlayer(id)
	released := removeUserFromAllResources(r.state, id)
	if r.state.Quiz.RemoveParticipant(id) {
		r.deliver([]Effect{broadcast(participantsMessage(&r.state.Quiz), "")})
	}
	r.dirty = true
	r.stats.Decr(stats.NumConnectedClients)
	r.log.Printf("client %q left room %q, released %d resources", id, r.id, released)

	if len(r.clients) == 0 && r.autoDispose {
		r.log.Printf("no clients in %q, disposing", r.id)
		r.dispose()
	}
}

func (r *Room) handleMessage(msg *ClientMessage) {
	sender := msg.client.sessionId
	if _, ok := r.clients[sender]; !ok {
		return
	}

	res := apply(&commandContext{
		state:        r.state,
		sender:       sender,
		now:          r.now(),
		chatLogLimit: r.cfg.ChatLogLimit,
		quiz:         r.cfg.Quiz,
	}, msg.command)

	r.deliver(res.effects)
	if res.changed {
		r.dirty = true
	}
	r.stats.Incr(stats.NumCommandsApplied)

	if msg.Id > 0 {
		msg.client.queueMessage(NoErrOK(msg.Id))
	}
}

func (r *Room) handleQuizWakeup() {
	prev := r.state.Quiz.Phase
	res := r.quiz.advance(r.state)
	if !res.changed {
		return
	}

	r.deliver(res.effects)
	r.dirty = true
	if r.state.Quiz.Phase == state.PhaseActive {
		r.stats.Incr(stats.NumQuizRounds)
	}
	r.log.Printf("room %q quiz %s -> %s", r.id, prev, r.state.Quiz.Phase)
}

func (r *Room) handleRoomTimeout() {
	if len(r.clients) > 0 {
		return
	}
	r.log.Printf("room %q timed out", r.id)
	r.dispose()
}

func (r *Room) deliver(effects []Effect) {
	for _, e := range effects {
		if e.To != "" {
			if c, ok := r.clients[e.To]; ok {
				c.queueMessage(e.Message)
			}
			continue
		}

		for id, c := range r.clients {
			if id == e.Except {
				continue
			}
			c.queueMessage(e.Message)
		}
	}
}

// flushState pushes a snapshot of the state tree to every client if anything
// changed since the last push.
func (r *Room) flushState() {
	if !r.dirty {
		return
	}
	r.dirty = false
	if len(r.clients) == 0 {
		return
	}

	r.deliver([]Effect{broadcast(newMessage(MsgState, r.state.Snapshot()), "")})
}

func (r *Room) dispose() {
	if r.Status() >= RoomDisposing {
		return
	}
	r.status.Store(int32(RoomDisposing))
	r.log.Printf("room %q disposing...", r.id)

	r.quiz.stop()
	if r.killTimer != nil {
		r.killTimer.Stop()
	}
	r.reservations.release(r.whiteboardIds...)

	notice := newMessage(MsgRoomDisposed, roomDisposedPayload{RoomId: r.id})
	for id, c := range r.clients {
		c.queueMessage(notice)
		delete(r.clients, id)
		r.stats.Decr(stats.NumConnectedClients)
	}
	r.clientCount.Store(0)

	r.unload(r.id)
	r.status.Store(int32(RoomDisposed))
	// clients watch done and close their connections
	close(r.done)
	r.log.Printf("room %q disposed", r.id)
}
