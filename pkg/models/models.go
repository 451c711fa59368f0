package models

import (
	"time"
)

// Candle представляет дневную или внутридневную свечу
type Candle struct {
	Ticker    string
	Interval  string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Series представляет упорядоченный ряд свечей для одного тикера
type Series struct {
	Ticker   string
	Interval string
	Bars     []*Candle
}

// IsEmpty проверяет, пуст ли ряд
func (s *Series) IsEmpty() bool {
	return s == nil || len(s.Bars) == 0
}

// GainerRecord представляет запись из списка лидеров роста
type GainerRecord struct {
	Ticker        string
	Price         float64
	ChangeAmount  float64
	ChangePercent float64
	Volume        float64
}

// Fundamentals представляет фундаментальные данные компании.
// Любое из опциональных полей может отсутствовать.
type Fundamentals struct {
	Ticker            string
	Name              string
	Exchange          string
	Sector            string
	Industry          string
	MarketCap         *float64
	Beta              *float64
	SharesOutstanding *float64
	FloatShares       *float64
	AvgVolume         *float64
	Week52High        *float64
	Week52Low         *float64
	IPODate           *time.Time
}

// NewsItem представляет одну новость по тикеру
type NewsItem struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
	Sentiment   *float64
}

// NewsFeed представляет ленту новостей по тикеру
type NewsFeed struct {
	Ticker    string
	Items     []NewsItem
	FetchedAt time.Time
}

// IsEmpty проверяет, есть ли новости в ленте
func (f *NewsFeed) IsEmpty() bool {
	return f == nil || len(f.Items) == 0
}

// Headlines возвращает не более limit последних заголовков
func (f *NewsFeed) Headlines(limit int) []string {
	if f.IsEmpty() {
		return nil
	}
	items := f.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return titles
}
