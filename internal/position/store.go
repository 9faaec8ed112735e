package position

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/store"
)

// Store persists per-ticker open-position state through the shared
// key-value store. The mutex gives every ticker a single consistent
// sequence of read-modify-write updates across concurrent scans.
type Store struct {
	mu     sync.Mutex
	kv     store.Store
	logger zerolog.Logger
}

// NewStore creates a position store over the key-value backend.
func NewStore(kv store.Store) *Store {
	return &Store{
		kv:     kv,
		logger: log.With().Str("component", "positions").Logger(),
	}
}

func positionKey(ticker string) string { return "position:" + ticker }

// Get returns the stored position for the ticker, if any.
func (s *Store) Get(ticker string) (*model.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ticker)
}

// HasActive reports whether the ticker has an ACTIVE position.
func (s *Store) HasActive(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.get(ticker)
	return ok && pos.Status == model.PositionActive
}

// Active returns all ACTIVE positions.
func (s *Store) Active() []*model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys()
	if err != nil {
		s.logger.Warn().Err(err).Msg("list positions")
		return nil
	}
	var active []*model.Position
	for _, key := range keys {
		ticker, ok := strings.CutPrefix(key, "position:")
		if !ok {
			continue
		}
		if pos, ok := s.get(ticker); ok && pos.Status == model.PositionActive {
			active = append(active, pos)
		}
	}
	return active
}

// get loads one position. Caller holds the lock. Corrupt records are
// treated as absent.
func (s *Store) get(ticker string) (*model.Position, bool) {
	raw, ok, err := s.kv.Get(positionKey(ticker))
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("load position")
		}
		return nil, false
	}
	var pos model.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("corrupt position record")
		return nil, false
	}
	return &pos, true
}

// put persists one position. Caller holds the lock.
func (s *Store) put(pos *model.Position) {
	raw, err := json.Marshal(pos)
	if err == nil {
		err = s.kv.Put(positionKey(pos.Ticker), raw)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", pos.Ticker).Msg("persist position")
	}
}
