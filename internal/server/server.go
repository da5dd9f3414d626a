package server

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-office/internal/stats"
	"github.com/npezzotti/go-office/internal/types"
)

// RoomConfig holds the settings shared by every room of a server.
type RoomConfig struct {
	// ChatLogLimit caps the chat log of a room. Zero keeps every message.
	ChatLogLimit    int
	Quiz            QuizConfig
	PatchInterval   time.Duration
	IdleRoomTimeout time.Duration
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		Quiz:            DefaultQuizConfig(),
		PatchInterval:   50 * time.Millisecond,
		IdleRoomTimeout: 5 * time.Second,
	}
}

type OfficeServer struct {
	log          *log.Logger
	stats        stats.StatsProvider
	cfg          RoomConfig
	rooms        map[string]*Room
	roomsLock    sync.RWMutex
	reservations *reservationRegistry
	now          func() time.Time
	pick         func(n int) int
}

func NewOfficeServer(logger *log.Logger, su stats.StatsProvider, cfg RoomConfig) (*OfficeServer, error) {
	if err := validateRoutes(); err != nil {
		return nil, fmt.Errorf("message routes: %w", err)
	}

	su.RegisterMetric(stats.NumActiveRooms)
	su.RegisterMetric(stats.NumConnectedClients)
	su.RegisterMetric(stats.NumCommandsApplied)
	su.RegisterMetric(stats.NumQuizRounds)

	cs := &OfficeServer{
		log:          logger,
		stats:        su,
		cfg:          cfg,
		rooms:        make(map[string]*Room),
		reservations: newReservationRegistry(),
		now:          time.Now,
		pick:         rand.IntN,
	}
	su.RegisterFunc(stats.RoomOccupancy, func() any { return cs.occupancy() })

	return cs, nil
}

// CreateRoom builds a room from opts and starts its loop.
func (cs *OfficeServer) CreateRoom(opts RoomOptions) (*Room, error) {
	r, err := newRoom(cs, uuid.NewString(), opts)
	if err != nil {
		return nil, err
	}

	cs.roomsLock.Lock()
	cs.rooms[r.id] = r
	cs.roomsLock.Unlock()

	cs.stats.Incr(stats.NumActiveRooms)
	cs.log.Printf("created room %q (%s)", r.id, r.name)

	go r.start()

	return r, nil
}

func (cs *OfficeServer) GetRoom(id string) (*Room, error) {
	cs.roomsLock.RLock()
	defer cs.roomsLock.RUnlock()

	r, ok := cs.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// ListRooms returns the live rooms, oldest first.
func (cs *OfficeServer) ListRooms() []types.RoomListing {
	cs.roomsLock.RLock()
	listings := make([]types.RoomListing, 0, len(cs.rooms))
	for _, r := range cs.rooms {
		if r.Status() >= RoomDisposing {
			continue
		}
		listings = append(listings, r.Listing())
	}
	cs.roomsLock.RUnlock()

	slices.SortFunc(listings, func(a, b types.RoomListing) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return listings
}

func (cs *OfficeServer) occupancy() map[string]int {
	occupancy := make(map[string]int)
	for _, l := range cs.ListRooms() {
		occupancy[l.Id] = l.Clients
	}
	return occupancy
}

func (cs *OfficeServer) unloadRoom(roomId string) {
	cs.roomsLock.Lock()
	_, ok := cs.rooms[roomId]
	delete(cs.rooms, roomId)
	cs.roomsLock.Unlock()

	if ok {
		cs.stats.Decr(stats.NumActiveRooms)
		cs.log.Printf("removed room %q", roomId)
	}
}

// Shutdown disposes every live room and waits for each to finish.
func (cs *OfficeServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down rooms")

	// rooms unload themselves, so the lock is not held while disposing
	cs.roomsLock.RLock()
	rooms := make([]*Room, 0, len(cs.rooms))
	for _, r := range cs.rooms {
		rooms = append(rooms, r)
	}
	cs.roomsLock.RUnlock()

	for _, r := range rooms {
		cs.log.Println("shutting down room", r.id)
		if err := r.Dispose(ctx); err != nil {
			return fmt.Errorf("dispose room %q: %w", r.id, err)
		}
	}

	return nil
}
