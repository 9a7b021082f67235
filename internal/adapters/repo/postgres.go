package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

const trackedUserColumns = `chat_id, user_id, username, first_name, last_name, status, is_bot, is_chat_admin, karma, message_count, first_seen, last_seen`

func scanTrackedUser(row pgx.Row, extra ...any) (domain.TrackedUser, error) {
	var (
		u      domain.TrackedUser
		status string
	)
	dest := []any{&u.ChatID, &u.UserID, &u.Username, &u.FirstName, &u.LastName, &status, &u.IsBot, &u.IsChatAdmin, &u.Karma, &u.MessageCount, &u.FirstSeen, &u.LastSeen}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.TrackedUser{}, err
	}
	u.Status = domain.ParseMemberStatus(status)
	u.FirstSeen = u.FirstSeen.UTC()
	u.LastSeen = u.LastSeen.UTC()
	return u, nil
}

// UpsertSighting реализует domain.UserRepo. Профиль обновляется только если
// наблюдение не старше сохранённого last_seen.
func (p *Postgres) UpsertSighting(ctx context.Context, s domain.Sighting) (domain.TrackedUser, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var messages int64
	if s.Kind == domain.SightingMessage {
		messages = 1
	}

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO tracked_users AS t (chat_id, user_id, username, first_name, last_name, status, is_bot, is_chat_admin, message_count, first_seen, last_seen)
VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6::text, ''), 'member'), $7, COALESCE($8::boolean, FALSE), $9, $10, $10)
ON CONFLICT (chat_id, user_id) DO UPDATE SET
    message_count = t.message_count + EXCLUDED.message_count,
    username      = CASE WHEN EXCLUDED.last_seen >= t.last_seen THEN EXCLUDED.username ELSE t.username END,
    first_name    = CASE WHEN EXCLUDED.last_seen >= t.last_seen THEN EXCLUDED.first_name ELSE t.first_name END,
    last_name     = CASE WHEN EXCLUDED.last_seen >= t.last_seen THEN EXCLUDED.last_name ELSE t.last_name END,
    is_bot        = CASE WHEN EXCLUDED.last_seen >= t.last_seen THEN EXCLUDED.is_bot ELSE t.is_bot END,
    status        = CASE
                        WHEN EXCLUDED.last_seen < t.last_seen THEN t.status
                        WHEN $6::text <> '' THEN $6::text
                        WHEN t.status IN ('left', 'kicked') THEN 'member'
                        ELSE t.status
                    END,
    is_chat_admin = CASE
                        WHEN EXCLUDED.last_seen >= t.last_seen AND $8::boolean IS NOT NULL THEN $8::boolean
                        ELSE t.is_chat_admin
                    END,
    last_seen     = GREATEST(t.last_seen, EXCLUDED.last_seen)
RETURNING `+trackedUserColumns+`, (xmax = 0)
`, s.ChatID, s.UserID, s.Username, s.FirstName, s.LastName, string(s.Status), s.IsBot, s.IsChatAdmin, messages, s.SeenAt.UTC())

	var created bool
	u, err := scanTrackedUser(row, &created)
	metrics.ObserveNetworkRequest("postgres", "upsert_sighting", "tracked_users", start, err)
	if err != nil {
		return domain.TrackedUser{}, false, storageErr("upsert tracked user", err)
	}
	return u, created, nil
}

// ListChatUsers реализует domain.UserRepo.
func (p *Postgres) ListChatUsers(ctx context.Context, chatID int64) ([]domain.TrackedUser, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+trackedUserColumns+` FROM tracked_users WHERE chat_id = $1`, chatID)
	metrics.ObserveNetworkRequest("postgres", "list_chat_users", "tracked_users", start, err)
	if err != nil {
		return nil, storageErr("list tracked users", err)
	}
	defer rows.Close()

	out := make([]domain.TrackedUser, 0)
	for rows.Next() {
		u, err := scanTrackedUser(rows)
		if err != nil {
			return nil, storageErr("scan tracked user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tracked users", err)
	}
	sortByName(out)
	return out, nil
}

// GetUser реализует domain.UserRepo.
func (p *Postgres) GetUser(ctx context.Context, chatID, userID int64) (domain.TrackedUser, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	u, err := scanTrackedUser(p.pool.QueryRow(ctx, `SELECT `+trackedUserColumns+` FROM tracked_users WHERE chat_id = $1 AND user_id = $2`, chatID, userID))
	metrics.ObserveNetworkRequest("postgres", "get_user", "tracked_users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrackedUser{}, storageErr("get tracked user", err)
	}
	return u, nil
}

// FindByUsername реализует domain.UserRepo.
func (p *Postgres) FindByUsername(ctx context.Context, chatID int64, username string) (domain.TrackedUser, error) {
	username = normalizeUsername(username)
	if username == "" {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	u, err := scanTrackedUser(p.pool.QueryRow(ctx, `
SELECT `+trackedUserColumns+` FROM tracked_users
WHERE chat_id = $1 AND lower(username) = lower($2)
ORDER BY last_seen DESC, user_id DESC
LIMIT 1`, chatID, username))
	metrics.ObserveNetworkRequest("postgres", "find_by_username", "tracked_users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrackedUser{}, storageErr("find tracked user", err)
	}
	return u, nil
}

// RemoveUser реализует domain.UserRepo.
func (p *Postgres) RemoveUser(ctx context.Context, chatID, userID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM tracked_users WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	metrics.ObserveNetworkRequest("postgres", "remove_user", "tracked_users", start, err)
	if err != nil {
		return storageErr("remove tracked user", err)
	}
	return nil
}

// AddKarma реализует domain.KarmaRepo.
func (p *Postgres) AddKarma(ctx context.Context, chatID, userID int64, delta int) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var karma int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE tracked_users SET karma = karma + $3
WHERE chat_id = $1 AND user_id = $2
RETURNING karma`, chatID, userID, delta).Scan(&karma)
	metrics.ObserveNetworkRequest("postgres", "add_karma", "tracked_users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, storageErr("add karma", err)
	}
	return karma, nil
}

// TopUsers реализует domain.KarmaRepo.
func (p *Postgres) TopUsers(ctx context.Context, chatID int64, by domain.LeaderboardKind, limit int) ([]domain.TrackedUser, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	query := `SELECT ` + trackedUserColumns + ` FROM tracked_users
WHERE chat_id = $1 AND NOT is_bot AND karma <> 0
ORDER BY karma DESC, user_id
LIMIT $2`
	if by == domain.LeaderboardActivity {
		query = `SELECT ` + trackedUserColumns + ` FROM tracked_users
WHERE chat_id = $1 AND NOT is_bot AND message_count > 0
ORDER BY message_count DESC, user_id
LIMIT $2`
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, chatID, limit)
	metrics.ObserveNetworkRequest("postgres", "top_users", "tracked_users", start, err)
	if err != nil {
		return nil, storageErr("top users", err)
	}
	defer rows.Close()

	var out []domain.TrackedUser
	for rows.Next() {
		u, err := scanTrackedUser(rows)
		if err != nil {
			return nil, storageErr("scan top user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate top users", err)
	}
	return out, nil
}

const warningColumns = `id, chat_id, user_id, reason, issued_by, issued_by_name, created_at, expires_at`

func scanWarning(row pgx.Row) (domain.Warning, error) {
	var w domain.Warning
	if err := row.Scan(&w.ID, &w.ChatID, &w.UserID, &w.Reason, &w.IssuedBy, &w.IssuedByName, &w.CreatedAt, &w.ExpiresAt); err != nil {
		return domain.Warning{}, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	if w.ExpiresAt != nil {
		exp := w.ExpiresAt.UTC()
		w.ExpiresAt = &exp
	}
	return w, nil
}

// AddWarning реализует domain.WarningRepo.
func (p *Postgres) AddWarning(ctx context.Context, w domain.Warning) (domain.Warning, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	saved, err := scanWarning(p.pool.QueryRow(ctx, `
INSERT INTO warnings (chat_id, user_id, reason, issued_by, issued_by_name, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+warningColumns, w.ChatID, w.UserID, w.Reason, w.IssuedBy, w.IssuedByName, w.CreatedAt.UTC(), w.ExpiresAt))
	metrics.ObserveNetworkRequest("postgres", "add_warning", "warnings", start, err)
	if err != nil {
		return domain.Warning{}, storageErr("add warning", err)
	}
	return saved, nil
}

// ListWarnings реализует domain.WarningRepo.
func (p *Postgres) ListWarnings(ctx context.Context, chatID, userID int64, now time.Time) ([]domain.Warning, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+warningColumns+` FROM warnings
WHERE chat_id = $1 AND user_id = $2 AND (expires_at IS NULL OR expires_at > $3)
ORDER BY created_at DESC, id DESC`, chatID, userID, now.UTC())
	metrics.ObserveNetworkRequest("postgres", "list_warnings", "warnings", start, err)
	if err != nil {
		return nil, storageErr("list warnings", err)
	}
	defer rows.Close()

	var out []domain.Warning
	for rows.Next() {
		w, err := scanWarning(rows)
		if err != nil {
			return nil, storageErr("scan warning", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate warnings", err)
	}
	return out, nil
}

// RemoveLatestWarning реализует domain.WarningRepo.
func (p *Postgres) RemoveLatestWarning(ctx context.Context, chatID, userID int64, now time.Time) (domain.Warning, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	w, err := scanWarning(p.pool.QueryRow(ctx, `
DELETE FROM warnings WHERE id = (
    SELECT id FROM warnings
    WHERE chat_id = $1 AND user_id = $2 AND (expires_at IS NULL OR expires_at > $3)
    ORDER BY created_at DESC, id DESC
    LIMIT 1
)
RETURNING `+warningColumns, chatID, userID, now.UTC()))
	metrics.ObserveNetworkRequest("postgres", "remove_warning", "warnings", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Warning{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Warning{}, storageErr("remove warning", err)
	}
	return w, nil
}

// PurgeExpiredWarnings реализует domain.WarningRepo.
func (p *Postgres) PurgeExpiredWarnings(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM warnings WHERE expires_at IS NOT NULL AND expires_at <= $1`, now.UTC())
	metrics.ObserveNetworkRequest("postgres", "purge_warnings", "warnings", start, err)
	if err != nil {
		return 0, storageErr("purge warnings", err)
	}
	return tag.RowsAffected(), nil
}

// SaveMute реализует domain.MuteRepo.
func (p *Postgres) SaveMute(ctx context.Context, m domain.Mute) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var until *time.Time
	if !m.Permanent() {
		u := m.Until.UTC()
		until = &u
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO mutes (chat_id, user_id, muted_until, reason, issued_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chat_id, user_id) DO UPDATE SET
    muted_until = EXCLUDED.muted_until, reason = EXCLUDED.reason, issued_by = EXCLUDED.issued_by, created_at = EXCLUDED.created_at
`, m.ChatID, m.UserID, until, m.Reason, m.IssuedBy, m.CreatedAt.UTC())
	metrics.ObserveNetworkRequest("postgres", "save_mute", "mutes", start, err)
	if err != nil {
		return storageErr("save mute", err)
	}
	return nil
}

// DeleteMute реализует domain.MuteRepo.
func (p *Postgres) DeleteMute(ctx context.Context, chatID, userID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM mutes WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	metrics.ObserveNetworkRequest("postgres", "delete_mute", "mutes", start, err)
	if err != nil {
		return storageErr("delete mute", err)
	}
	return nil
}

// PurgeExpiredMutes реализует domain.MuteRepo.
func (p *Postgres) PurgeExpiredMutes(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM mutes WHERE muted_until IS NOT NULL AND muted_until <= $1`, now.UTC())
	metrics.ObserveNetworkRequest("postgres", "purge_mutes", "mutes", start, err)
	if err != nil {
		return 0, storageErr("purge mutes", err)
	}
	return tag.RowsAffected(), nil
}
