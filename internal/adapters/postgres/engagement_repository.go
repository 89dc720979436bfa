package postgres

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/infrastructure/database"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

type EngagementRepository struct {
	pool *pgxpool.Pool
}

func NewEngagementRepository(pool *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{pool: pool}
}

// eventData is the envelope stored in track_event.event_data.
type eventData struct {
	Data domain.Payload `json:"data"`
}

func (r *EngagementRepository) ListTrackEvents(ctx context.Context, userIDs, eventTypes []string) (map[string][]domain.Event, error) {
	ids := validIDs(userIDs)
	if len(ids) == 0 || len(eventTypes) == 0 {
		return map[string][]domain.Event{}, nil
	}

	const query = `SELECT user_id::text, created_at, event_type, event_data, operating_system
		FROM public.track_event
		WHERE user_id = ANY($1::uuid[]) AND event_type = ANY($2::text[])
		ORDER BY user_id, created_at ASC`

	out, err := database.WithRetry(ctx, maxRetries, func() (map[string][]domain.Event, error) {
		rows, err := r.pool.Query(ctx, query, ids, eventTypes)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		byUser := make(map[string][]domain.Event)
		for rows.Next() {
			var (
				userID    string
				createdAt pgtype.Timestamptz
				eventType string
				raw       []byte
				osName    pgtype.Text
			)
			if err := rows.Scan(&userID, &createdAt, &eventType, &raw, &osName); err != nil {
				return nil, err
			}
			byUser[userID] = append(byUser[userID], domain.Event{
				Type:            eventType,
				CreatedAt:       timeOf(createdAt),
				Data:            decodePayload(userID, eventType, raw),
				OperatingSystem: textOf(osName),
			})
		}
		return byUser, rows.Err()
	})
	if err != nil {
		return nil, wrap("list track events", err)
	}
	return out, nil
}

// decodePayload returns the data object of an event; malformed JSON yields an empty payload.
func decodePayload(userID, eventType string, raw []byte) domain.Payload {
	if len(raw) == 0 {
		return nil
	}
	var env eventData
	if err := json.Unmarshal(raw, &env); err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Str("event_type", eventType).Msg("skipping malformed event_data")
		return nil
	}
	return env.Data
}

func (r *EngagementRepository) ListActivities(ctx context.Context, userIDs []string) (map[string][]domain.Activity, error) {
	const query = `SELECT user_id::text, created_at, activity_type
		FROM activities WHERE user_id = ANY($1::uuid[])`

	out, err := collectByUser(ctx, r.pool, query, userIDs, func(row pgx.CollectableRow) (string, domain.Activity, error) {
		var (
			userID       string
			createdAt    pgtype.Timestamptz
			activityType pgtype.Text
		)
		if err := row.Scan(&userID, &createdAt, &activityType); err != nil {
			return "", domain.Activity{}, err
		}
		return userID, domain.Activity{Type: domain.ActivityType(textOf(activityType)), CreatedAt: timeOf(createdAt)}, nil
	})
	if err != nil {
		return nil, wrap("list activities", err)
	}
	return out, nil
}

func (r *EngagementRepository) ListFocusSessions(ctx context.Context, userIDs []string) (map[string][]domain.FocusSession, error) {
	const query = `SELECT user_id::text, created_at FROM focus_modes WHERE user_id = ANY($1::uuid[])`

	out, err := collectByUser(ctx, r.pool, query, userIDs, func(row pgx.CollectableRow) (string, domain.FocusSession, error) {
		var (
			userID    string
			createdAt pgtype.Timestamptz
		)
		if err := row.Scan(&userID, &createdAt); err != nil {
			return "", domain.FocusSession{}, err
		}
		return userID, domain.FocusSession{CreatedAt: timeOf(createdAt)}, nil
	})
	if err != nil {
		return nil, wrap("list focus sessions", err)
	}
	return out, nil
}

func (r *EngagementRepository) ListDevices(ctx context.Context, userIDs []string) (map[string][]domain.Device, error) {
	const query = `SELECT user_id::text, operating_system, created_at
		FROM public.devices WHERE user_id = ANY($1::uuid[])
		ORDER BY created_at ASC`

	out, err := collectByUser(ctx, r.pool, query, userIDs, func(row pgx.CollectableRow) (string, domain.Device, error) {
		var (
			userID    string
			osName    pgtype.Text
			createdAt pgtype.Timestamptz
		)
		if err := row.Scan(&userID, &osName, &createdAt); err != nil {
			return "", domain.Device{}, err
		}
		return userID, domain.Device{OperatingSystem: textOf(osName), CreatedAt: timeOf(createdAt)}, nil
	})
	if err != nil {
		return nil, wrap("list devices", err)
	}
	return out, nil
}

// collectByUser runs a query keyed by ANY($1::uuid[]) and groups rows by user id.
func collectByUser[T any](ctx context.Context, pool *pgxpool.Pool, query string, userIDs []string, scan func(pgx.CollectableRow) (string, T, error)) (map[string][]T, error) {
	ids := validIDs(userIDs)
	if len(ids) == 0 {
		return map[string][]T{}, nil
	}

	return database.WithRetry(ctx, maxRetries, func() (map[string][]T, error) {
		rows, err := pool.Query(ctx, query, ids)
		if err != nil {
			return nil, err
		}
		byUser := make(map[string][]T)
		_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
			id, v, err := scan(row)
			if err != nil {
				return struct{}{}, err
			}
			byUser[id] = append(byUser[id], v)
			return struct{}{}, nil
		})
		return byUser, err
	})
}
