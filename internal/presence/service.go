package presence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
	"github.com/quantumlife/viewerscope/internal/geo"
	"github.com/quantumlife/viewerscope/internal/logging"
	"github.com/quantumlife/viewerscope/internal/scheduler"
)

// ErrConnectionClosed is returned by Join when the handle went away while its
// location was being resolved.
var ErrConnectionClosed = errors.New("connection closed before handshake")

// Config for the presence service
type Config struct {
	SweepInterval   time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
}

// DefaultConfig returns default presence configuration
func DefaultConfig() Config {
	return Config{
		SweepInterval:   DefaultSweepInterval,
		WriteTimeout:    10 * time.Second,
		MaxMessageBytes: 4096,
	}
}

// Service wires connections to location resolution, the registry and the
// broadcast protocol.
//
// mu serialises every registry mutation together with the broadcast it
// triggers, so observers never see a join or leave half applied. It also
// makes this the only writer of data frames on each connection.
type Service struct {
	registry *Registry
	monitor  *Monitor
	resolver geo.Resolver
	sched    *scheduler.Scheduler
	cfg      Config
	log      *logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewService creates the presence service. When sched is non-nil the
// liveness sweep is registered on it; otherwise callers drive
// Monitor().Sweep themselves.
func NewService(resolver geo.Resolver, sched *scheduler.Scheduler, cfg Config) (*Service, error) {
	def := DefaultConfig()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}

	s := &Service{
		registry: NewRegistry(),
		resolver: resolver,
		sched:    sched,
		cfg:      cfg,
		log:      logging.WithField("component", "presence"),
	}
	s.monitor = &Monitor{svc: s, interval: cfg.SweepInterval}

	if sched != nil {
		if err := sched.Register(s.monitor.Task()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Registry exposes the connection registry for read-only snapshots
func (s *Service) Registry() *Registry {
	return s.registry
}

// Monitor returns the liveness monitor
func (s *Service) Monitor() *Monitor {
	return s.monitor
}

// Count returns the number of connected viewers
func (s *Service) Count() int {
	return s.registry.Count()
}

// Visitors returns the current roster
func (s *Service) Visitors() []*core.Viewer {
	return s.registry.List()
}

// Track enters conn in the liveness table before its handshake completes.
func (s *Service) Track(conn Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.ErrServiceClosed
	}
	s.registry.Track(conn)
	return nil
}

// Join resolves ip, registers the viewer, sends the welcome roster to conn
// and announces the join to everyone else. If conn was disconnected while
// the location was resolving, the result is discarded.
func (s *Service) Join(ctx context.Context, conn Conn, ip, userAgent string) (*core.Viewer, error) {
	var location *core.LocationRecord
	if s.resolver != nil {
		location = s.resolver.Resolve(ctx, ip)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, core.ErrServiceClosed
	}
	if !s.registry.Tracked(conn) {
		return nil, ErrConnectionClosed
	}

	viewer := s.registry.Register(conn, userAgent, location)
	send(conn, welcomeEnvelope(viewer, s.registry.List()))
	broadcastExcept(s.registry.Handles(), joinedEnvelope(viewer), conn)

	s.log.WithFields(map[string]interface{}{
		"viewer":  viewer.ID,
		"ip_hash": geo.HashIP(ip),
		"total":   s.registry.Count(),
	}).Info("viewer joined")

	return viewer, nil
}

// Connect is Track followed by Join
func (s *Service) Connect(ctx context.Context, conn Conn, ip, userAgent string) (*core.Viewer, error) {
	if err := s.Track(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return s.Join(ctx, conn, ip, userAgent)
}

// Disconnect removes conn, announces the leave if it had joined, and closes
// the transport. Calling it again for the same handle does nothing.
func (s *Service) Disconnect(conn Conn) {
	s.mu.Lock()
	v := s.registry.Remove(conn)
	if v != nil {
		broadcastExcept(s.registry.Handles(), leftEnvelope(v), conn)
		s.log.WithFields(map[string]interface{}{
			"viewer": v.ID,
			"total":  s.registry.Count(),
		}).Info("viewer left")
	}
	s.mu.Unlock()

	conn.Close()
}

// Heartbeat marks conn alive
func (s *Service) Heartbeat(conn Conn) {
	s.registry.MarkAlive(conn)
}

// Close stops the sweep and closes every tracked handle. It is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := s.registry.reset()
	s.mu.Unlock()

	// Unregister cancels the sweep loop; a sweep already waiting on mu sees
	// closed and returns.
	if s.sched != nil {
		s.sched.Unregister(SweepTaskID)
	}

	for _, c := range conns {
		c.Close()
	}
	s.log.Info("presence service closed, released %d connections", len(conns))
	return nil
}
