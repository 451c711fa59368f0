package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/skalibog/sgs/pkg/models"
)

// MemoryStorage хранит результаты в памяти процесса.
// Используется при отключенном InfluxDB и в тестах.
type MemoryStorage struct {
	mu         sync.RWMutex
	candles    map[string][]*models.Candle
	candidates map[string][]*models.ShortCandidate
}

// NewMemoryStorage создает хранилище в памяти
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		candles:    make(map[string][]*models.Candle),
		candidates: make(map[string][]*models.ShortCandidate),
	}
}

// Close освобождает ресурсы хранилища
func (s *MemoryStorage) Close() {}

// SaveCandles сохраняет свечи
func (s *MemoryStorage) SaveCandles(_ context.Context, candles []*models.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range candles {
		key := c.Ticker + "/" + c.Interval
		s.candles[key] = append(s.candles[key], c)
	}
	return nil
}

// GetCandles возвращает свечи тикера, свежие первыми
func (s *MemoryStorage) GetCandles(_ context.Context, ticker, interval string, limit int) ([]*models.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.candles[ticker+"/"+interval]
	candles := make([]*models.Candle, len(stored))
	copy(candles, stored)

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.After(candles[j].Timestamp)
	})
	if limit > 0 && len(candles) > limit {
		candles = candles[:limit]
	}
	return candles, nil
}

// SaveCandidate сохраняет результат анализа кандидата
func (s *MemoryStorage) SaveCandidate(_ context.Context, candidate *models.ShortCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[candidate.Ticker] = append(s.candidates[candidate.Ticker], candidate)
	return nil
}

// GetCandidateHistory возвращает историю анализа тикера, свежие первыми
func (s *MemoryStorage) GetCandidateHistory(_ context.Context, ticker string, limit int) ([]*models.ShortCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.candidates[ticker]
	candidates := make([]*models.ShortCandidate, len(stored))
	copy(candidates, stored)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AnalyzedAt.After(candidates[j].AnalyzedAt)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
