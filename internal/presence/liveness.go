package presence

import (
	"context"
	"time"

	"github.com/quantumlife/viewerscope/internal/scheduler"
)

// SweepTaskID is the scheduler id of the liveness sweep
const SweepTaskID = "presence-sweep"

// DefaultSweepInterval is used when the configured interval is zero
const DefaultSweepInterval = 30 * time.Second

// Monitor evicts handles that did not answer the previous sweep's ping.
//
// Each handle moves ALIVE -> AWAITING_PONG when pinged and back to ALIVE on a
// pong or heartbeat. A handle still awaiting its pong at the next sweep is
// evicted, so a dead peer lingers for at most two intervals.
type Monitor struct {
	svc      *Service
	interval time.Duration
}

// SweepResult summarises one pass
type SweepResult struct {
	Pinged  int
	Evicted int
}

// Interval returns the sweep period
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Task wraps the sweep as a scheduler task
func (m *Monitor) Task() *scheduler.Task {
	return scheduler.IntervalTask(SweepTaskID, "Presence liveness sweep", m.interval, func(ctx context.Context) error {
		m.Sweep(ctx)
		return nil
	})
}

// Sweep runs one liveness pass.
func (m *Monitor) Sweep(ctx context.Context) SweepResult {
	s := m.svc
	var result SweepResult
	var evicted, ping []Conn

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return result
	}
	for _, conn := range s.registry.Handles() {
		wasAlive, tracked := s.registry.expire(conn)
		if !tracked {
			continue
		}
		if !wasAlive {
			if v := s.registry.Remove(conn); v != nil {
				broadcastExcept(s.registry.Handles(), leftEnvelope(v), conn)
				s.log.WithField("viewer", v.ID).Info("evicted unresponsive viewer")
			}
			evicted = append(evicted, conn)
			continue
		}
		ping = append(ping, conn)
	}
	s.mu.Unlock()

	for _, conn := range evicted {
		conn.Close()
	}
	// Ping failures look the same as silence; the next sweep handles both.
	for _, conn := range ping {
		if ctx.Err() != nil {
			break
		}
		_ = conn.Ping()
	}

	result.Evicted = len(evicted)
	result.Pinged = len(ping)
	if result.Evicted > 0 {
		s.log.Debug("sweep: pinged %d, evicted %d", result.Pinged, result.Evicted)
	}
	return result
}
