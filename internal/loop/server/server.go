package server

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomz197/cubesketch/internal/loop/config"
)

// Hub is the interface clients use to communicate with the session hub.
// Decouples the Client from the concrete Server implementation, enabling
// testing with a local hub.
type Hub interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	RecordRound(clientID int)
	GetSnapshot() *Snapshot
}

// Server tracks the connected sessions. Each session plays its own game; the
// server only counts them and broadcasts shutdown.
type Server struct {
	snapshot     atomic.Pointer[Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	roundsCh     chan int
	registerCh   chan *ClientHandle
	unregisterCh chan int
	totalRounds  int
	mu           sync.RWMutex
}

// Compile-time check that Server implements Hub.
var _ Hub = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID       int
	Username string           // Display name for this client
	Rounds   int              // Rounds this client started; guarded by Server.mu
	EventsCh chan ClientEvent // Events sent to client
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type ClientEventType
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
)

// Snapshot is an immutable view of the hub for display.
type Snapshot struct {
	Players     int
	TotalRounds int
}

// NewServer creates a new session hub.
func NewServer() *Server {
	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		roundsCh:     make(chan int, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(config.ServerTickTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.processRegistrations()
		s.collectRounds()
		s.createSnapshot()
	}
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	// Pick up sessions registered since the last tick so they are notified too.
	s.processRegistrations()

	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.processRegistrations()
			if s.Players() == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// RecordRound counts a started round for a client.
func (s *Server) RecordRound(clientID int) {
	select {
	case s.roundsCh <- clientID:
	default:
		// Channel full, drop the count
	}
}

// GetSnapshot returns the most recent hub snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// Players returns the number of registered clients.
func (s *Server) Players() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// PlayerStats is one registered client as listed by Roster.
type PlayerStats struct {
	Username string
	Rounds   int
}

// Roster lists the registered clients and their round counts, ordered by ID.
func (s *Server) Roster() []PlayerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles := make([]*ClientHandle, 0, len(s.clients))
	for _, h := range s.clients {
		handles = append(handles, h)
	}
	slices.SortFunc(handles, func(a, b *ClientHandle) int { return a.ID - b.ID })

	roster := make([]PlayerStats, len(handles))
	for i, h := range handles {
		roster[i] = PlayerStats{Username: h.Username, Rounds: h.Rounds}
	}
	return roster
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectRounds gathers round counts reported since the last tick.
func (s *Server) collectRounds() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case id := <-s.roundsCh:
			if handle, ok := s.clients[id]; ok {
				handle.Rounds++
				s.totalRounds++
			}
		default:
			return
		}
	}
}

// createSnapshot publishes an immutable snapshot of the hub state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.snapshot.Store(&Snapshot{
		Players:     len(s.clients),
		TotalRounds: s.totalRounds,
	})
}
