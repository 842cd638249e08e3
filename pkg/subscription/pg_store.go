package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifier/pkg/pg"
)

// PostgresStore implements Store over a pgx connection pool.
// Rows are unique per (subscriber_id, path); Save relies on that constraint
// for its upsert.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed subscription store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, subscriber_id, path, include_children, event_types, created_at`

func scanSubscription(row pgx.Row) (Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.Path, &sub.IncludeChildren, &sub.EventTypes, &sub.CreatedAt)
	return sub, err
}

func (s *PostgresStore) Save(ctx context.Context, sub Subscription) (Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (id, subscriber_id, path, include_children, event_types, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subscriber_id, path) DO UPDATE
			SET include_children = EXCLUDED.include_children,
			    event_types = EXCLUDED.event_types
		RETURNING `+subscriptionColumns,
		sub.ID, sub.SubscriberID, sub.Path, sub.IncludeChildren, sub.EventTypes, sub.CreatedAt,
	)

	saved, err := scanSubscription(row)
	if err != nil {
		return Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) Get(ctx context.Context, subscriberID, id string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1 AND subscriber_id = $2`,
		id, subscriberID,
	)

	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &sub, nil
}

func (s *PostgresStore) List(ctx context.Context, subscriberID, pathPrefix string) ([]Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE subscriber_id = $1`
	args := []any{subscriberID}

	if pathPrefix != "" {
		// Match the prefix path itself and everything below it.
		query += ` AND (path = $2 OR path LIKE $2 || '/%')`
		args = append(args, pathPrefix)
	}
	query += ` ORDER BY path`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

func (s *PostgresStore) ListByPaths(ctx context.Context, paths []string) ([]Subscription, error) {
	if len(paths) == 0 {
		return []Subscription{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE path = ANY($1)
		ORDER BY created_at`,
		paths,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions by paths: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, subscriberID, id string) error {
	// Notifications keep their history; only the reference is detached.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE notifications SET subscription_id = NULL
		WHERE subscription_id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("detach notifications: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM subscriptions
		WHERE id = $1 AND subscriber_id = $2`,
		id, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func collectSubscriptions(rows pgx.Rows) ([]Subscription, error) {
	subs := make([]Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}
