package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiliopalmerini/onboardtrack/internal/ports"
)

const maxRetries = 2

// Repositories holds all Postgres repository implementations as port interfaces.
type Repositories struct {
	Users      ports.UserRepository
	Engagement ports.EngagementRepository
}

// NewRepositories creates all Postgres repositories from a pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(pool),
		Engagement: NewEngagementRepository(pool),
	}
}
