package server

import (
	"fmt"
	"sync"

	"github.com/teris-io/shortid"
)

const maxReserveAttempts = 10

// reservationRegistry tracks external whiteboard room ids held by live rooms.
// Ids are unique across every room of the process.
type reservationRegistry struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	generate func() (string, error)
}

func newReservationRegistry() *reservationRegistry {
	return &reservationRegistry{
		ids:      make(map[string]struct{}),
		generate: shortid.Generate,
	}
}

func (rr *reservationRegistry) reserve() (string, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	for range maxReserveAttempts {
		id, err := rr.generate()
		if err != nil {
			return "", fmt.Errorf("generate whiteboard id: %w", err)
		}
		if _, taken := rr.ids[id]; taken {
			continue
		}
		rr.ids[id] = struct{}{}
		return id, nil
	}

	return "", fmt.Errorf("no free whiteboard id after %d attempts", maxReserveAttempts)
}

func (rr *reservationRegistry) release(ids ...string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	for _, id := range ids {
		delete(rr.ids, id)
	}
}

func (rr *reservationRegistry) reserved(id string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	_, ok := rr.ids[id]
	return ok
}

func (rr *reservationRegistry) len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return len(rr.ids)
}

// NewSessionId returns a short id for a new connection.
func NewSessionId() (string, error) {
	return shortid.Generate()
}
