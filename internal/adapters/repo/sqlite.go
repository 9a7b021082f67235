package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

type trackedUserRow struct {
	ChatID       int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID       int64  `gorm:"primaryKey;autoIncrement:false"`
	Username     string `gorm:"index"`
	FirstName    string
	LastName     string
	Status       string
	IsBot        bool
	IsChatAdmin  bool
	Karma        int
	MessageCount int64
	FirstSeen    time.Time
	LastSeen     time.Time
}

func (trackedUserRow) TableName() string { return "tracked_users" }

type warningRow struct {
	ID           int64 `gorm:"primaryKey"`
	ChatID       int64 `gorm:"index:warnings_chat_user_idx"`
	UserID       int64 `gorm:"index:warnings_chat_user_idx"`
	Reason       string
	IssuedBy     int64
	IssuedByName string
	CreatedAt    time.Time
	ExpiresAt    *time.Time `gorm:"index"`
}

func (warningRow) TableName() string { return "warnings" }

type muteRow struct {
	ChatID     int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID     int64 `gorm:"primaryKey;autoIncrement:false"`
	MutedUntil *time.Time
	Reason     string
	IssuedBy   int64
	CreatedAt  time.Time
}

func (muteRow) TableName() string { return "mutes" }

func rowFromUser(u domain.TrackedUser) trackedUserRow {
	return trackedUserRow{
		ChatID: u.ChatID, UserID: u.UserID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
		Status: string(u.Status), IsBot: u.IsBot, IsChatAdmin: u.IsChatAdmin, Karma: u.Karma,
		MessageCount: u.MessageCount, FirstSeen: u.FirstSeen.UTC(), LastSeen: u.LastSeen.UTC(),
	}
}

func (r trackedUserRow) toDomain() domain.TrackedUser {
	return domain.TrackedUser{
		ChatID: r.ChatID, UserID: r.UserID, Username: r.Username, FirstName: r.FirstName, LastName: r.LastName,
		Status: domain.ParseMemberStatus(r.Status), IsBot: r.IsBot, IsChatAdmin: r.IsChatAdmin, Karma: r.Karma,
		MessageCount: r.MessageCount, FirstSeen: r.FirstSeen.UTC(), LastSeen: r.LastSeen.UTC(),
	}
}

func (r warningRow) toDomain() domain.Warning {
	w := domain.Warning{
		ID: r.ID, ChatID: r.ChatID, UserID: r.UserID, Reason: r.Reason,
		IssuedBy: r.IssuedBy, IssuedByName: r.IssuedByName, CreatedAt: r.CreatedAt.UTC(),
	}
	if r.ExpiresAt != nil {
		exp := r.ExpiresAt.UTC()
		w.ExpiresAt = &exp
	}
	return w
}

// SQLite реализует репозитории поверх gorm и SQLite-файла.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite открывает базу и применяет AutoMigrate.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = "nukem.db"
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// один писатель: SQLite не любит конкурентные транзакции
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&trackedUserRow{}, &warningRow{}, &muteRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close закрывает соединение.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureDirForSQLite создаёт каталог для файла базы.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func observeSQLite(operation, table string, start time.Time, err error) {
	metrics.ObserveNetworkRequest("sqlite", operation, table, start, err)
}

// UpsertSighting реализует domain.UserRepo.
func (s *SQLite) UpsertSighting(ctx context.Context, sighting domain.Sighting) (domain.TrackedUser, bool, error) {
	var (
		merged  domain.TrackedUser
		created bool
	)
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row trackedUserRow
		err := tx.Where("chat_id = ? AND user_id = ?", sighting.ChatID, sighting.UserID).Take(&row).Error
		switch {
		case err == nil:
			existing := row.toDomain()
			merged = sighting.Merge(&existing)
			next := rowFromUser(merged)
			return tx.Save(&next).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			merged = sighting.Merge(nil)
			created = true
			next := rowFromUser(merged)
			return tx.Create(&next).Error
		default:
			return err
		}
	})
	observeSQLite("upsert_sighting", "tracked_users", start, err)
	if err != nil {
		return domain.TrackedUser{}, false, storageErr("upsert tracked user", err)
	}
	return merged, created, nil
}

// ListChatUsers реализует domain.UserRepo.
func (s *SQLite) ListChatUsers(ctx context.Context, chatID int64) ([]domain.TrackedUser, error) {
	var rows []trackedUserRow
	start := time.Now()
	err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Find(&rows).Error
	observeSQLite("list_chat_users", "tracked_users", start, err)
	if err != nil {
		return nil, storageErr("list tracked users", err)
	}
	out := make([]domain.TrackedUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	sortByName(out)
	return out, nil
}

// GetUser реализует domain.UserRepo.
func (s *SQLite) GetUser(ctx context.Context, chatID, userID int64) (domain.TrackedUser, error) {
	var row trackedUserRow
	err := s.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrackedUser{}, storageErr("get tracked user", err)
	}
	return row.toDomain(), nil
}

// FindByUsername реализует domain.UserRepo.
func (s *SQLite) FindByUsername(ctx context.Context, chatID int64, username string) (domain.TrackedUser, error) {
	username = normalizeUsername(username)
	if username == "" {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	var row trackedUserRow
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND lower(username) = lower(?)", chatID, username).
		Order("last_seen desc, user_id desc").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TrackedUser{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrackedUser{}, storageErr("find tracked user", err)
	}
	return row.toDomain(), nil
}

// RemoveUser реализует domain.UserRepo.
func (s *SQLite) RemoveUser(ctx context.Context, chatID, userID int64) error {
	err := s.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&trackedUserRow{}).Error
	if err != nil {
		return storageErr("remove tracked user", err)
	}
	return nil
}

// AddKarma реализует domain.KarmaRepo.
func (s *SQLite) AddKarma(ctx context.Context, chatID, userID int64, delta int) (int, error) {
	var karma int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&trackedUserRow{}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).
			UpdateColumn("karma", gorm.Expr("karma + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		var row trackedUserRow
		if err := tx.Select("karma").Where("chat_id = ? AND user_id = ?", chatID, userID).Take(&row).Error; err != nil {
			return err
		}
		karma = row.Karma
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, storageErr("add karma", err)
	}
	return karma, nil
}

// TopUsers реализует domain.KarmaRepo.
func (s *SQLite) TopUsers(ctx context.Context, chatID int64, by domain.LeaderboardKind, limit int) ([]domain.TrackedUser, error) {
	q := s.db.WithContext(ctx).Where("chat_id = ? AND is_bot = ?", chatID, false)
	if by == domain.LeaderboardActivity {
		q = q.Where("message_count > 0").Order("message_count desc").Order("user_id")
	} else {
		q = q.Where("karma <> 0").Order("karma desc").Order("user_id")
	}
	var rows []trackedUserRow
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, storageErr("top users", err)
	}
	out := make([]domain.TrackedUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// AddWarning реализует domain.WarningRepo.
func (s *SQLite) AddWarning(ctx context.Context, w domain.Warning) (domain.Warning, error) {
	row := warningRow{
		ChatID: w.ChatID, UserID: w.UserID, Reason: w.Reason,
		IssuedBy: w.IssuedBy, IssuedByName: w.IssuedByName, CreatedAt: w.CreatedAt.UTC(),
	}
	if w.ExpiresAt != nil {
		exp := w.ExpiresAt.UTC()
		row.ExpiresAt = &exp
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Warning{}, storageErr("add warning", err)
	}
	return row.toDomain(), nil
}

func activeWarnings(db *gorm.DB, chatID, userID int64, now time.Time) *gorm.DB {
	return db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Where("(expires_at IS NULL OR expires_at > ?)", now.UTC())
}

// ListWarnings реализует domain.WarningRepo.
func (s *SQLite) ListWarnings(ctx context.Context, chatID, userID int64, now time.Time) ([]domain.Warning, error) {
	var rows []warningRow
	err := activeWarnings(s.db.WithContext(ctx), chatID, userID, now).
		Order("created_at desc").Order("id desc").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("list warnings", err)
	}
	out := make([]domain.Warning, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// RemoveLatestWarning реализует domain.WarningRepo.
func (s *SQLite) RemoveLatestWarning(ctx context.Context, chatID, userID int64, now time.Time) (domain.Warning, error) {
	var row warningRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := activeWarnings(tx, chatID, userID, now).Order("created_at desc").Order("id desc").Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&warningRow{}, row.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Warning{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Warning{}, storageErr("remove warning", err)
	}
	return row.toDomain(), nil
}

// PurgeExpiredWarnings реализует domain.WarningRepo.
func (s *SQLite) PurgeExpiredWarnings(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).Delete(&warningRow{})
	if res.Error != nil {
		return 0, storageErr("purge warnings", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveMute реализует domain.MuteRepo.
func (s *SQLite) SaveMute(ctx context.Context, m domain.Mute) error {
	row := muteRow{ChatID: m.ChatID, UserID: m.UserID, Reason: m.Reason, IssuedBy: m.IssuedBy, CreatedAt: m.CreatedAt.UTC()}
	if !m.Permanent() {
		until := m.Until.UTC()
		row.MutedUntil = &until
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return storageErr("save mute", err)
	}
	return nil
}

// DeleteMute реализует domain.MuteRepo.
func (s *SQLite) DeleteMute(ctx context.Context, chatID, userID int64) error {
	err := s.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&muteRow{}).Error
	if err != nil {
		return storageErr("delete mute", err)
	}
	return nil
}

// PurgeExpiredMutes реализует domain.MuteRepo.
func (s *SQLite) PurgeExpiredMutes(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("muted_until IS NOT NULL AND muted_until <= ?", now.UTC()).Delete(&muteRow{})
	if res.Error != nil {
		return 0, storageErr("purge mutes", res.Error)
	}
	return res.RowsAffected, nil
}
