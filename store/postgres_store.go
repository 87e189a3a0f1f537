package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhinavdhar/creditbook/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "creditbook"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "creditbook"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *PostgresStore) CreateCreditor(c *types.Creditor) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx, `
INSERT INTO creditors (id, name, last_visit, follow_up, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at
`, c.ID, c.Name, c.LastVisit, c.FollowUp, string(c.Status)).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	if c.History == nil {
		c.History = []types.HistoryEntry{}
	}
	return nil
}

func (s *PostgresStore) GetCreditor(id string) (*types.Creditor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var c types.Creditor
	var status string
	err := s.pool.QueryRow(ctx, `
SELECT id, name, last_visit, follow_up, status, created_at, updated_at
FROM creditors
WHERE id = $1
`, id).Scan(&c.ID, &c.Name, &c.LastVisit, &c.FollowUp, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	c.Status = types.Status(status)
	history, err := s.loadHistory(ctx, []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.History = history[c.ID]
	if c.History == nil {
		c.History = []types.HistoryEntry{}
	}
	return &c, nil
}

func (s *PostgresStore) ListCreditors(filter string) ([]*types.Creditor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
SELECT id, name, last_visit, follow_up, status, created_at, updated_at
FROM creditors
`
	args := []interface{}{}
	filter = strings.TrimSpace(filter)
	if filter != "" {
		query += `
WHERE name ILIKE $1
   OR status ILIKE $1
   OR to_char(follow_up, 'DD/MM/YYYY') ILIKE $1
   OR to_char(last_visit, 'DD/MM/YYYY') ILIKE $1
`
		args = append(args, "%"+filter+"%")
	}
	query += `ORDER BY follow_up ASC NULLS FIRST, name ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, ids, err := scanCreditors(rows)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		c.History = history[c.ID]
		if c.History == nil {
			c.History = []types.HistoryEntry{}
		}
	}
	return list, nil
}

func (s *PostgresStore) UpdateCreditor(id string, upd types.CreditorUpdate) (*types.Creditor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	set := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.LastVisit != nil {
		add("last_visit", *upd.LastVisit)
	}
	switch {
	case upd.FollowUp != nil:
		add("follow_up", *upd.FollowUp)
	case upd.ClearFollowUp:
		set = append(set, "follow_up = NULL")
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE creditors SET %s WHERE id = $1`, strings.Join(set, ", ")), args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, types.ErrNotFound
	}

	if e := upd.HistoryEntry; e != nil {
		date := e.Date
		if date.IsZero() {
			date = time.Now().UTC()
		}
		_, err = tx.Exec(ctx, `
INSERT INTO creditor_history (creditor_id, entry_date, action, details, amount)
VALUES ($1, $2, $3, $4, $5)
`, id, date, e.Action, e.Details, e.Amount)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetCreditor(id)
}

func (s *PostgresStore) DeleteCreditor(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `DELETE FROM creditors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DueCreditors returns pending creditors whose follow-up falls inside
// [from, to]. History is not loaded; the digest only needs names and
// dates.
func (s *PostgresStore) DueCreditors(from, to time.Time) ([]*types.Creditor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, name, last_visit, follow_up, status, created_at, updated_at
FROM creditors
WHERE status = 'pending'
  AND follow_up IS NOT NULL
  AND follow_up >= $1
  AND follow_up <= $2
ORDER BY follow_up ASC, name ASC
`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, _, err := scanCreditors(rows)
	return list, err
}

func scanCreditors(rows pgx.Rows) ([]*types.Creditor, []string, error) {
	list := make([]*types.Creditor, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var c types.Creditor
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.LastVisit, &c.FollowUp, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, nil, err
		}
		c.Status = types.Status(status)
		list = append(list, &c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return list, ids, nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, creditorIDs []string) (map[string][]types.HistoryEntry, error) {
	out := make(map[string][]types.HistoryEntry, len(creditorIDs))
	if len(creditorIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT creditor_id, entry_date, action, details, amount
FROM creditor_history
WHERE creditor_id = ANY($1)
ORDER BY id ASC
`, creditorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var creditorID string
		var e types.HistoryEntry
		if err := rows.Scan(&creditorID, &e.Date, &e.Action, &e.Details, &e.Amount); err != nil {
			return nil, err
		}
		out[creditorID] = append(out[creditorID], e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertSubscriber(chatID int64, subscribed bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscribers (chat_id, is_subscribed)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET
  is_subscribed = EXCLUDED.is_subscribed,
  updated_at = NOW();
`, chatID, subscribed)
	return err
}

// EnsureSubscriber registers a chat on first contact without touching
// the subscription flag of a chat that already opted out.
func (s *PostgresStore) EnsureSubscriber(chatID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscribers (chat_id, is_subscribed)
VALUES ($1, TRUE)
ON CONFLICT (chat_id) DO NOTHING;
`, chatID)
	return err
}

func (s *PostgresStore) GetSubscriber(chatID int64) (*types.Subscriber, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var sub types.Subscriber
	err := s.pool.QueryRow(ctx, `
SELECT chat_id, is_subscribed, created_at, updated_at
FROM subscribers
WHERE chat_id = $1
`, chatID).Scan(&sub.ChatID, &sub.IsSubscribed, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) ActiveSubscribers() ([]*types.Subscriber, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT chat_id, is_subscribed, created_at, updated_at
FROM subscribers
WHERE is_subscribed = TRUE
ORDER BY chat_id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]*types.Subscriber, 0)
	for rows.Next() {
		var sub types.Subscriber
		if err := rows.Scan(&sub.ChatID, &sub.IsSubscribed, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}
