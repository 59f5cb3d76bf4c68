package app

import (
	"sync"
	"time"
)

// Session is the in-memory fan-out point of one live quiz. It carries no
// quiz data itself; every update is a RoomState snapshot built from the store.
type Session struct {
	id        string
	createdAt time.Time

	// build serialises snapshot construction and broadcast so subscribers
	// never observe an older state after a newer one.
	build sync.Mutex

	mu          sync.RWMutex
	subscribers map[chan RoomState]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return &Session{
		id:          id,
		createdAt:   time.Now(),
		subscribers: make(map[chan RoomState]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// IsEmpty reports whether the session has no subscribers.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

// subscribe registers a channel and delivers the snapshot produced by
// snapshot as its first value.
func (s *Session) subscribe(snapshot func() (RoomState, error)) (<-chan RoomState, func(), error) {
	s.build.Lock()
	defer s.build.Unlock()

	initial, err := snapshot()
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan RoomState, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// refresh builds a fresh snapshot and pushes it to every subscriber.
func (s *Session) refresh(snapshot func() (RoomState, error)) (RoomState, error) {
	s.build.Lock()
	defer s.build.Unlock()

	state, err := snapshot()
	if err != nil {
		return RoomState{}, err
	}
	s.broadcast(state)
	return state, nil
}

func (s *Session) broadcast(state RoomState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow reader: replace the oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
