package exchange

import (
	"context"

	"github.com/skalibog/sgs/pkg/models"
)

// Provider абстрагирует источник рыночных данных.
// Все методы блокирующие и уважают контекст.
type Provider interface {
	// TopGainers возвращает дневных лидеров роста
	TopGainers(ctx context.Context) ([]*models.GainerRecord, error)
	// DailySeries возвращает дневные свечи тикера, свежие первыми
	DailySeries(ctx context.Context, ticker string) (*models.Series, error)
	// IntradaySeries возвращает внутридневные свечи тикера
	IntradaySeries(ctx context.Context, ticker, interval string) (*models.Series, error)
	// Fundamentals возвращает фундаментальные данные компании
	Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
	// News возвращает ленту новостей по тикеру
	News(ctx context.Context, ticker string, limit int) (*models.NewsFeed, error)
}
