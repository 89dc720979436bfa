package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/database"
)

const userColumns = `id::text, auth0_id, created_at, updated_at, revenue_cat_status, stripe_customer_id`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) ListRecent(ctx context.Context, since time.Time) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users
		WHERE created_at >= $1 OR updated_at >= $1
		ORDER BY created_at DESC`
	users, err := r.query(ctx, query, since)
	if err != nil {
		return nil, wrap("list recent users", err)
	}
	return users, nil
}

func (r *UserRepository) FindByAuth0IDs(ctx context.Context, auth0IDs []string) ([]domain.User, error) {
	if len(auth0IDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE auth0_id = ANY($1::text[])`
	users, err := r.query(ctx, query, auth0IDs)
	if err != nil {
		return nil, wrap("find users by auth0 id", err)
	}
	return users, nil
}

func (r *UserRepository) FindByStripeCustomerIDs(ctx context.Context, customerIDs []string) ([]domain.User, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = ANY($1::text[])`
	users, err := r.query(ctx, query, customerIDs)
	if err != nil {
		return nil, wrap("find users by stripe customer", err)
	}
	return users, nil
}

func (r *UserRepository) ListRevenueCatSubscribers(ctx context.Context, createdSince, syncedSince time.Time) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users
		WHERE revenue_cat_status = 'personal'
		AND last_date_revenue_cat_data_synced >= $1
		AND created_at >= $2`
	users, err := r.query(ctx, query, syncedSince, createdSince)
	if err != nil {
		return nil, wrap("list revenuecat subscribers", err)
	}
	return users, nil
}

func (r *UserRepository) query(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	return database.WithRetry(ctx, maxRetries, func() ([]domain.User, error) {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, scanUser)
	})
}

func scanUser(row pgx.CollectableRow) (domain.User, error) {
	var (
		u                               domain.User
		auth0ID, revenueCat, customerID pgtype.Text
		createdAt, updatedAt            pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &auth0ID, &createdAt, &updatedAt, &revenueCat, &customerID); err != nil {
		return domain.User{}, err
	}
	u.Auth0ID = textOf(auth0ID)
	u.RevenueCatStatus = textOf(revenueCat)
	u.StripeCustomerID = textOf(customerID)
	u.CreatedAt = timeOf(createdAt)
	u.UpdatedAt = timeOf(updatedAt)
	return u, nil
}
