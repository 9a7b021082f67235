package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"nukem-bot/internal/domain"
	"nukem-bot/internal/infra/metrics"
)

// LeavePolicy определяет, что делать с записью ушедшего участника.
type LeavePolicy string

const (
	// LeaveKeep сохраняет запись со статусом left/kicked.
	LeaveKeep LeavePolicy = "keep"
	// LeaveRemove удаляет запись.
	LeaveRemove LeavePolicy = "remove"
)

// ErrInvalidLeavePolicy возвращается для неизвестной политики.
var ErrInvalidLeavePolicy = errors.New("неизвестная политика ухода")

// ParseLeavePolicy разбирает значение LEAVE_POLICY.
func ParseLeavePolicy(raw string) (LeavePolicy, error) {
	switch p := LeavePolicy(raw); p {
	case LeaveKeep, LeaveRemove:
		return p, nil
	case "":
		return LeaveKeep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLeavePolicy, raw)
	}
}

// AdminLister отдаёт администраторов чата по данным платформы.
type AdminLister interface {
	ChatAdministrators(ctx context.Context, chatID int64) ([]domain.ChatMember, error)
}

const syncWorkers = 4

// Service ведёт учёт участников чатов.
type Service struct {
	users  domain.UserRepo
	admins AdminLister
	policy LeavePolicy
	locks  *chatLocks
	now    func() time.Time
	log    zerolog.Logger
}

// NewService создаёт сервис учёта участников.
func NewService(users domain.UserRepo, admins AdminLister, policy LeavePolicy, log zerolog.Logger) *Service {
	if policy == "" {
		policy = LeaveKeep
	}
	return &Service{
		users:  users,
		admins: admins,
		policy: policy,
		locks:  newChatLocks(),
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// RecordSighting применяет наблюдение к хранилищу и сообщает, создана ли запись.
func (s *Service) RecordSighting(ctx context.Context, sighting domain.Sighting) (domain.TrackedUser, bool, error) {
	if sighting.SeenAt.IsZero() {
		sighting.SeenAt = s.now()
	}
	unlock := s.locks.lock(sighting.ChatID)
	defer unlock()
	return s.upsert(ctx, sighting)
}

func (s *Service) upsert(ctx context.Context, sighting domain.Sighting) (domain.TrackedUser, bool, error) {
	user, created, err := s.users.UpsertSighting(ctx, sighting)
	switch {
	case err != nil:
		metrics.TrackedUserUpserts.WithLabelValues("error").Inc()
		return domain.TrackedUser{}, false, fmt.Errorf("учёт участника %d: %w", sighting.UserID, err)
	case created:
		metrics.TrackedUserUpserts.WithLabelValues("created").Inc()
	default:
		metrics.TrackedUserUpserts.WithLabelValues("updated").Inc()
	}
	return user, created, nil
}

// ListUsers возвращает участников чата, отсортированных по имени.
func (s *Service) ListUsers(ctx context.Context, chatID int64) ([]domain.TrackedUser, error) {
	users, err := s.users.ListChatUsers(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("список участников чата %d: %w", chatID, err)
	}
	if users == nil {
		users = []domain.TrackedUser{}
	}
	return users, nil
}

// GetUser возвращает участника чата по id.
func (s *Service) GetUser(ctx context.Context, chatID, userID int64) (domain.TrackedUser, error) {
	return s.users.GetUser(ctx, chatID, userID)
}

// FindByUsername ищет участника по username без учёта регистра и ведущего @.
func (s *Service) FindByUsername(ctx context.Context, chatID int64, username string) (domain.TrackedUser, error) {
	return s.users.FindByUsername(ctx, chatID, username)
}

// RemoveUser удаляет запись участника.
func (s *Service) RemoveUser(ctx context.Context, chatID, userID int64) error {
	unlock := s.locks.lock(chatID)
	defer unlock()
	if err := s.users.RemoveUser(ctx, chatID, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("удаление участника %d: %w", userID, err)
	}
	return nil
}

// HandleDeparture применяет политику ухода к участнику, покинувшему чат.
func (s *Service) HandleDeparture(ctx context.Context, chatID int64, member domain.ChatMember, at time.Time) error {
	if s.policy == LeaveRemove {
		return s.RemoveUser(ctx, chatID, member.UserID)
	}
	status := member.Status
	if status.Present() {
		status = domain.StatusLeft
	}
	notAdmin := false
	_, _, err := s.RecordSighting(ctx, domain.Sighting{
		ChatID:      chatID,
		UserID:      member.UserID,
		Username:    member.Username,
		FirstName:   member.FirstName,
		LastName:    member.LastName,
		IsBot:       member.IsBot,
		Kind:        domain.SightingMembership,
		Status:      status,
		IsChatAdmin: &notAdmin,
		SeenAt:      at,
	})
	return err
}

// SyncReport — итог синхронизации администраторов чата.
type SyncReport struct {
	Total   int
	New     []string
	Updated []string
	Demoted []string
	Failed  []string
}

// SyncChatAdmins сохраняет текущих администраторов чата и снимает флаг с бывших.
func (s *Service) SyncChatAdmins(ctx context.Context, chatID int64) (SyncReport, error) {
	members, err := s.admins.ChatAdministrators(ctx, chatID)
	if err != nil {
		return SyncReport{}, fmt.Errorf("администраторы чата %d: %w", chatID, err)
	}

	unlock := s.locks.lock(chatID)
	defer unlock()

	known, err := s.users.ListChatUsers(ctx, chatID)
	if err != nil {
		return SyncReport{}, fmt.Errorf("список участников чата %d: %w", chatID, err)
	}

	now := s.now()
	current := make(map[int64]struct{}, len(members))
	report := SyncReport{Total: len(members)}
	var mu sync.Mutex
	add := func(list *[]string, name string) {
		mu.Lock()
		*list = append(*list, name)
		mu.Unlock()
	}

	p := pool.New().WithMaxGoroutines(syncWorkers)
	for _, m := range members {
		current[m.UserID] = struct{}{}
		p.Go(func() {
			isAdmin := true
			name := domain.DisplayName(m.UserID, m.FirstName, m.LastName, m.Username)
			_, created, err := s.upsert(ctx, domain.Sighting{
				ChatID:      chatID,
				UserID:      m.UserID,
				Username:    m.Username,
				FirstName:   m.FirstName,
				LastName:    m.LastName,
				IsBot:       m.IsBot,
				Kind:        domain.SightingMembership,
				Status:      m.Status,
				IsChatAdmin: &isAdmin,
				SeenAt:      now,
			})
			switch {
			case err != nil:
				s.log.Warn().Err(err).Int64("chat", chatID).Int64("user", m.UserID).Msg("tracking: не удалось сохранить админа")
				add(&report.Failed, name)
			case created:
				add(&report.New, name)
			default:
				add(&report.Updated, name)
			}
		})
	}
	p.Wait()

	for _, u := range known {
		if _, still := current[u.UserID]; still || !u.IsChatAdmin {
			continue
		}
		notAdmin := false
		seen := now
		if u.LastSeen.After(seen) {
			seen = u.LastSeen
		}
		status := u.Status
		if status.Privileged() {
			status = domain.StatusMember
		}
		_, _, err := s.upsert(ctx, domain.Sighting{
			ChatID:      chatID,
			UserID:      u.UserID,
			Username:    u.Username,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			IsBot:       u.IsBot,
			Kind:        domain.SightingMembership,
			Status:      status,
			IsChatAdmin: &notAdmin,
			SeenAt:      seen,
		})
		if err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Int64("user", u.UserID).Msg("tracking: не удалось снять флаг админа")
			report.Failed = append(report.Failed, u.DisplayName())
			continue
		}
		report.Demoted = append(report.Demoted, u.DisplayName())
	}

	sort.Strings(report.New)
	sort.Strings(report.Updated)
	sort.Strings(report.Failed)
	s.log.Info().Int64("chat", chatID).Int("admins", report.Total).Int("new", len(report.New)).Int("failed", len(report.Failed)).Msg("tracking: админы синхронизированы")
	return report, nil
}
