package analytics

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// Generator produces the synthetic metrics behind the dashboard. It is not
// safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src)}
}

// Series returns days points ending at now, oldest first. Ids count down so
// the newest point is data-0.
func (g *Generator) Series(now time.Time, days int) []models.AnalyticsPoint {
	points := make([]models.AnalyticsPoint, 0, max(days, 0))
	for i := days - 1; i >= 0; i-- {
		points = append(points, models.AnalyticsPoint{
			ID:                 fmt.Sprintf("data-%d", i),
			Date:               now.AddDate(0, 0, -i).Format(models.DateLayout),
			PageViews:          g.rng.IntN(10000) + 1000,
			UniqueVisitors:     g.rng.IntN(5000) + 500,
			BounceRate:         g.rng.Float64()*0.7 + 0.1,
			AvgSessionDuration: g.rng.IntN(300) + 30,
			Conversions:        g.rng.IntN(100) + 10,
			Revenue:            g.rng.IntN(10000) + 1000,
		})
	}
	return points
}

func (g *Generator) Realtime(now time.Time) models.RealtimeSnapshot {
	return models.RealtimeSnapshot{
		ActiveUsers:    g.rng.IntN(500) + 100,
		PagesPerMinute: g.rng.IntN(1000) + 100,
		LastUpdated:    now,
	}
}
