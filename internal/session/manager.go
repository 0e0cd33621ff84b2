// Package session keeps one dialogue engine per conversation for callers that serve many
// conversations at once.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"rental-chatbot/internal/catalog"
	"rental-chatbot/internal/classifier"
	apperrors "rental-chatbot/internal/common/errors"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/common/metrics"
	"rental-chatbot/internal/dialogue"
	"rental-chatbot/internal/preference"
	"rental-chatbot/pkg/vocabulary"
)

const (
	DefaultIdleTimeout = 15 * time.Minute
	DefaultMaxSessions = 1000
	minSweepInterval   = 10 * time.Millisecond
)

// Factory builds the engine of a new conversation.
type Factory func(log logger.Logger) (*dialogue.Engine, error)

// EngineFactory returns a Factory giving every conversation its own preference model over the
// shared read-only catalog.
func EngineFactory(cat *catalog.Catalog, clf classifier.Classifier, vocab *vocabulary.Vocabulary, cfg dialogue.Config, seed int64) Factory {
	return func(log logger.Logger) (*dialogue.Engine, error) {
		return dialogue.New(cfg, preference.NewModel(cat), clf, vocab, dialogue.NewRand(seed), log)
	}
}

// Session is one conversation. Turns on a session are serialised by mu; the registry reads
// lastSeen and busy without taking it.
type Session struct {
	ID string

	mu     sync.Mutex
	engine *dialogue.Engine
	// last turn, replayed when the same message id is delivered again
	lastMessageID string
	lastResult    *TurnResult

	lastSeen atomic.Int64 // unix nanoseconds
	busy     atomic.Int32
}

// Engine returns the dialogue engine of the session.
func (s *Session) Engine() *dialogue.Engine { return s.engine }

func (s *Session) touch(t time.Time) { s.lastSeen.Store(t.UnixNano()) }

func (s *Session) idleSince(cutoff time.Time) bool {
	return s.busy.Load() == 0 && s.lastSeen.Load() < cutoff.UnixNano()
}

// Config bounds a Manager.
type Config struct {
	IdleTimeout time.Duration
	MaxSessions int
}

// TurnResult is the outcome of one user message.
type TurnResult struct {
	SessionID string
	Replies   []dialogue.Reply
	Ended     bool
}

// Manager is a registry of open conversations.
type Manager struct {
	config  Config
	factory Factory
	logger  logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(config Config, factory Factory, log logger.Logger) *Manager {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}
	return &Manager{
		config:   config,
		factory:  factory,
		logger:   log.WithFields(map[string]interface{}{"component": "session-manager"}),
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Open starts a conversation under a fresh id.
func (m *Manager) Open() (*Session, error) {
	return m.open(uuid.NewString())
}

func (m *Manager) open(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if len(m.sessions) >= m.config.MaxSessions {
		return nil, apperrors.NewSessionLimitReachedError(m.config.MaxSessions)
	}

	engine, err := m.factory(m.logger.WithFields(map[string]interface{}{"sessionId": id}))
	if err != nil {
		return nil, err
	}
	s := &Session{ID: id, engine: engine}
	s.touch(m.now())
	m.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))

	m.logger.Debug("session opened", map[string]interface{}{"sessionId": id})
	return s, nil
}

// Get returns an open conversation.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

// Turn feeds one message to a conversation, opening it first when id is empty or unknown. A
// conversation that ends with goodbye is closed.
func (m *Manager) Turn(ctx context.Context, id, text string) (*TurnResult, error) {
	return m.TurnOnce(ctx, id, "", text)
}

// TurnOnce is Turn for messages that may be delivered more than once. When messageID equals the
// id of the last message of the conversation, the stored result is returned and the engine is
// not run again. An empty messageID disables the check.
func (m *Manager) TurnOnce(ctx context.Context, id, messageID, text string) (*TurnResult, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.busy.Add(-1)
	defer s.mu.Unlock()

	if messageID != "" && s.lastMessageID == messageID && s.lastResult != nil {
		m.logger.Info("repeated message, returning stored replies", map[string]interface{}{
			"sessionId": id,
			"messageId": messageID,
		})
		res := *s.lastResult
		return &res, nil
	}

	replies := s.engine.Respond(ctx, text)
	s.touch(m.now())

	res := &TurnResult{SessionID: id, Replies: replies}
	res.Ended = len(replies) > 0 && replies[len(replies)-1].Ends()
	s.lastMessageID, s.lastResult = messageID, res
	if res.Ended {
		m.remove(s)
	}
	out := *res
	return &out, nil
}

// acquire returns the registered session for id with its turn lock held. A session closed or
// expired while the caller waited for the lock is skipped and id is opened again.
func (m *Manager) acquire(id string) (*Session, error) {
	for {
		s, err := m.open(id)
		if err != nil {
			return nil, err
		}
		s.busy.Add(1)
		s.mu.Lock()
		if m.registered(s) {
			return s, nil
		}
		s.mu.Unlock()
		s.busy.Add(-1)
	}
}

func (m *Manager) registered(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[s.ID] == s
}

// Close forgets a conversation and reports whether it was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	m.removeLocked(s)
	return true
}

// remove unregisters s unless id has been taken over by another session.
func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.ID] == s {
		m.removeLocked(s)
	}
}

func (m *Manager) removeLocked(s *Session) {
	delete(m.sessions, s.ID)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.logger.Debug("session closed", map[string]interface{}{"sessionId": s.ID})
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Expire closes every conversation idle for longer than the idle timeout and returns how many
// were closed. A conversation with a turn in progress is never idle. Expire does not wait for
// running turns.
func (m *Manager) Expire() int {
	cutoff := m.now().Add(-m.config.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, s := range m.sessions {
		if !s.idleSince(cutoff) {
			continue
		}
		delete(m.sessions, id)
		expired++
	}
	if expired > 0 {
		metrics.SessionsActive.Set(float64(len(m.sessions)))
		m.logger.Info("expired idle sessions", map[string]interface{}{
			"expired": expired,
			"active":  len(m.sessions),
		})
	}
	return expired
}

// Start runs the idle janitor until ctx is done or Stop is called. Only the first call starts it.
func (m *Manager) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	interval := m.config.IdleTimeout / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.Expire()
			}
		}
	}()
}

// Stop ends the janitor started by Start and waits for it.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started.Load() {
			<-m.done
		}
	})
}
