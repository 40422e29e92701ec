package directory

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
)

const (
	DefaultUserCount = 20
	DefaultLogCount  = 100

	generatedUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var cycleRoles = []models.Role{models.RoleAdmin, models.RoleAnalyst, models.RoleViewer}

// GeneratedSource invents a fresh directory on every call and keeps nothing.
// Writes only wait out the delay and echo the result.
type GeneratedSource struct {
	mu    sync.Mutex
	rng   *rand.Rand
	users int
	logs  int
	delay time.Duration
	now   func() time.Time
}

func NewGeneratedSource(src rand.Source, users, logs int, delay time.Duration) *GeneratedSource {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if users <= 0 {
		users = DefaultUserCount
	}
	if logs <= 0 {
		logs = DefaultLogCount
	}
	return &GeneratedSource{rng: rand.New(src), users: users, logs: logs, delay: delay, now: time.Now}
}

func (g *GeneratedSource) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *GeneratedSource) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *GeneratedSource) generateUsers() []models.User {
	now := g.now()
	users := make([]models.User, 0, g.users)
	for i := 1; i <= g.users; i++ {
		users = append(users, models.User{
			ID:            fmt.Sprintf("user-%d", i),
			Email:         fmt.Sprintf("user%d@example.com", i),
			Name:          fmt.Sprintf("User %d", i),
			Role:          cycleRoles[(i-1)%len(cycleRoles)],
			EmailVerified: g.float() > 0.2,
			CreatedAt:     now.AddDate(0, 0, -g.intN(90)),
		})
	}
	return users
}

func (g *GeneratedSource) ListUsers(ctx context.Context) ([]models.User, error) {
	users := g.generateUsers()
	if err := timex.Sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *GeneratedSource) ListLoginLogs(ctx context.Context, users []models.User) ([]models.LoginLog, error) {
	if len(users) == 0 {
		users = g.generateUsers()
	}

	now := g.now()
	logs := make([]models.LoginLog, 0, g.logs)
	for i := 1; i <= g.logs; i++ {
		u := users[g.intN(len(users))]
		logs = append(logs, models.LoginLog{
			ID:        fmt.Sprintf("log-%d", i),
			UserID:    u.ID,
			Email:     u.Email,
			Timestamp: now.AddDate(0, 0, -g.intN(7)),
			Success:   g.float() > 0.1,
			IPAddress: fmt.Sprintf("192.168.%d.%d", g.intN(255), g.intN(255)),
			UserAgent: generatedUserAgent,
		})
	}
	slices.SortStableFunc(logs, func(a, b models.LoginLog) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})

	if err := timex.Sleep(ctx, g.delay); err != nil {
		return nil, err
	}
	return logs, nil
}

func (g *GeneratedSource) CreateUser(ctx context.Context, nu NewUser) (models.User, error) {
	if err := timex.Sleep(ctx, g.delay); err != nil {
		return models.User{}, err
	}
	now := g.now()
	return models.User{
		ID:            fmt.Sprintf("user-%d", now.UnixMilli()),
		Email:         nu.Email,
		Name:          nu.Name,
		Role:          nu.Role,
		Avatar:        nu.Avatar,
		EmailVerified: nu.EmailVerified,
		CreatedAt:     now,
	}, nil
}

func (g *GeneratedSource) UpdateUser(ctx context.Context, current models.User, patch UserPatch) (models.User, error) {
	if err := timex.Sleep(ctx, g.delay); err != nil {
		return models.User{}, err
	}
	return patch.apply(current), nil
}

func (g *GeneratedSource) DeleteUser(ctx context.Context, id string) error {
	return timex.Sleep(ctx, g.delay)
}
