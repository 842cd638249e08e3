package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifier/pkg/pg"
)

// PostgresStorage implements Storage over a pgx connection pool.
//
// Queries lean on the (subscriber_id, timestamp) and (subscriber_id, is_read)
// indexes created by the schema migrations, so pagination and unread counting
// stay cheap with thousands of rows per subscriber.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed notification storage.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

const notificationColumns = `id, subscriber_id, event_type, title, content, severity,
	object_path, timestamp, is_read, action_url, COALESCE(subscription_id, ''), inherited, extra`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.SubscriberID, &n.EventType, &n.Title, &n.Content, &n.Severity,
		&n.ObjectPath, &n.Timestamp, &n.IsRead, &n.ActionURL, &n.SubscriptionID, &n.Inherited, &n.Extra,
	)
	return n, err
}

func (s *PostgresStorage) Create(ctx context.Context, n Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications
			(id, subscriber_id, event_type, title, content, severity,
			 object_path, timestamp, is_read, action_url, subscription_id, inherited, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		n.ID, n.SubscriberID, n.EventType, n.Title, n.Content, n.Severity,
		n.ObjectPath, n.Timestamp, n.IsRead, n.ActionURL, n.SubscriptionID, n.Inherited, n.Extra,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, subscriberID, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1 AND subscriber_id = $2`,
		id, subscriberID,
	)

	n, err := scanNotification(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (s *PostgresStorage) List(ctx context.Context, subscriberID string, opts ListOptions) ([]Notification, error) {
	where, args := filterClauses(subscriberID, opts.Filter)

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY timestamp DESC, id DESC`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStorage) Count(ctx context.Context, subscriberID string, filter Filter) (int, error) {
	where, args := filterClauses(subscriberID, filter)

	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) MarkRead(ctx context.Context, subscriberID, id string) error {
	// The read transition is monotonic, so updating an already-read row is a
	// harmless no-op; only a missing or foreign id is an error.
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND subscriber_id = $2`,
		id, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) BulkMarkRead(ctx context.Context, subscriberID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = ANY($1) AND subscriber_id = $2 AND is_read = FALSE`,
		ids, subscriberID,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// filterClauses builds WHERE clauses and arguments for a subscriber-scoped
// filter. The subscriber predicate is always first.
func filterClauses(subscriberID string, f Filter) ([]string, []any) {
	where := []string{"subscriber_id = $1"}
	args := []any{subscriberID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Path != "" {
		add("object_path = $%d", f.Path)
	}
	if f.EventType != "" {
		add("event_type = $%d", f.EventType)
	}
	if f.Severity != "" {
		add("severity = $%d", string(f.Severity))
	}
	if f.IsRead != nil {
		add("is_read = $%d", *f.IsRead)
	}
	if f.From != nil {
		add("timestamp >= $%d", *f.From)
	}
	if f.To != nil {
		add("timestamp <= $%d", *f.To)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR content ILIKE '%%' || $%d || '%%')", n, n))
	}
	return where, args
}
