package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryService keeps results in process.
type MemoryService struct {
	mu        sync.RWMutex
	hands     []HandRecord
	standings map[string]*Standing
}

func NewMemoryService() *MemoryService {
	return &MemoryService{standings: make(map[string]*Standing)}
}

func (m *MemoryService) RecordHand(_ context.Context, rec HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.hands {
		if h.ID == rec.ID {
			return nil
		}
	}
	m.hands = append(m.hands, rec)
	for _, p := range rec.Players {
		s := m.standings[p.Username]
		if s == nil {
			s = &Standing{Username: p.Username}
			m.standings[p.Username] = s
		}
		s.HandsPlayed++
		if p.Won > 0 {
			s.HandsWon++
			s.ChipsWon += p.Won
		}
		s.Net += p.Net
	}
	return nil
}

func (m *MemoryService) Leaderboard(_ context.Context, limit int) ([]Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Standing, 0, len(m.standings))
	for _, s := range m.standings {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChipsWon != out[j].ChipsWon {
			return out[i].ChipsWon > out[j].ChipsWon
		}
		return out[i].Username < out[j].Username
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryService) RecentHands(_ context.Context, roomID string, limit int) ([]HandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = clampLimit(limit)
	out := make([]HandRecord, 0, limit)
	for i := len(m.hands) - 1; i >= 0 && len(out) < limit; i-- {
		if m.hands[i].RoomID == roomID {
			out = append(out, m.hands[i])
		}
	}
	return out, nil
}

func (m *MemoryService) Close() error { return nil }
