package services

import (
	"context"
	"time"

	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/run"
)

const (
	DefaultSessionIdleTimeout = 2 * time.Hour
	DefaultMaxSessions        = 10000

	// sweepInterval spaces out idle scans of the session table.
	sweepInterval = time.Minute
)

type evicted struct {
	id   string
	sess *quizSession
}

func (s *quizService) newSession() *quizSession {
	opts := []run.Option{
		run.WithCycling(s.settings.Cycling),
		run.WithThresholdBounds(s.settings.DefaultThreshold, s.settings.MaxThreshold),
	}
	if s.settings.NewRand != nil {
		opts = append(opts, run.WithRand(s.settings.NewRand()))
	}
	return &quizSession{engine: run.New(opts...)}
}

// session returns the held session for sessionID, creating it if needed.
// It is used by calls that change state.
func (s *quizService) session(ctx context.Context, sessionID string) *quizSession {
	return s.keep(ctx, sessionID, nil)
}

// find returns the session for sessionID with its lock held. A session that is
// not held yet is only kept when a stored bank was restored into it, so reads
// from unknown clients leave the table untouched.
func (s *quizService) find(ctx context.Context, sessionID string) *quizSession {
	s.mu.Lock()
	sess, held := s.sessions[sessionID]
	if held {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()

	if !held {
		sess = s.newSession()
		s.restore(ctx, sessionID, sess)
		if sess.bank != nil {
			sess = s.keep(ctx, sessionID, sess)
		}
	}

	sess.mu.Lock()
	s.restore(ctx, sessionID, sess)
	return sess
}

// keep stores fresh under sessionID unless a session is already held there,
// and returns the held one. A nil fresh creates a new session.
func (s *quizService) keep(ctx context.Context, sessionID string, fresh *quizSession) *quizSession {
	s.mu.Lock()
	now := s.now()
	if held, ok := s.sessions[sessionID]; ok {
		held.lastSeen = now
		s.mu.Unlock()
		return held
	}

	victims := s.evictLocked(now)
	if fresh == nil {
		fresh = s.newSession()
	}
	fresh.lastSeen = now
	s.sessions[sessionID] = fresh
	s.mu.Unlock()

	s.retire(ctx, victims)
	return fresh
}

// evictLocked drops sessions idle for longer than the idle timeout and, when
// the table is full, the least recently used one. s.mu must be held.
func (s *quizService) evictLocked(now time.Time) []evicted {
	var victims []evicted

	if now.Sub(s.swept) >= sweepInterval {
		s.swept = now
		for id, sess := range s.sessions {
			if now.Sub(sess.lastSeen) > s.idleTimeout {
				victims = append(victims, evicted{id: id, sess: sess})
				delete(s.sessions, id)
			}
		}
	}

	for len(s.sessions) >= s.maxSessions {
		var oldestID string
		var oldest *quizSession
		for id, sess := range s.sessions {
			if oldest == nil || sess.lastSeen.Before(oldest.lastSeen) {
				oldestID, oldest = id, sess
			}
		}
		victims = append(victims, evicted{id: oldestID, sess: oldest})
		delete(s.sessions, oldestID)
	}
	return victims
}

// retire cancels the active run of each evicted session so it is still
// recorded.
func (s *quizService) retire(ctx context.Context, victims []evicted) {
	if len(victims) == 0 {
		return
	}
	log := logger.FromContext(ctx)
	log.Debug("evicting %d sessions", len(victims))

	for _, v := range victims {
		v.sess.mu.Lock()
		if sum, ok := v.sess.engine.Cancel(); ok {
			log.Info("cancelling run of evicted session: answered=%d", sum.Answered)
			v.sess.last = &sum
			s.record(ctx, v.id, v.sess, sum)
		}
		v.sess.mu.Unlock()
	}
}
