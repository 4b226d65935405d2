package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// AdminService serves the admin directory: user listings with workload
// stats and the block toggle.
type AdminService struct {
	users   repository.UserRepository
	queries repository.QueryRepository
	cache   *persistence.Redis
	logger  *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	UserRepo  repository.UserRepository
	QueryRepo repository.QueryRepository
	Cache     *persistence.Redis
	Logger    *zap.Logger
}

// HeadStats is the per-head workload summary shown on the admin
// dashboard.
type HeadStats struct {
	Active   int64 `json:"active"`
	Resolved int64 `json:"resolved"`
}

// UserWithStats pairs an account with its role-dependent counters.
type UserWithStats struct {
	User domain.User
	// Head accounts carry Active/Resolved assignment counts.
	HeadStats *HeadStats
	// Participant accounts carry their total submitted count.
	TotalQueries *int64
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:   deps.UserRepo,
		queries: deps.QueryRepo,
		cache:   deps.Cache,
		logger:  deps.Logger,
	}
}

// ListUsers returns every non-admin account with its stats.
func (s *AdminService) ListUsers(ctx context.Context) ([]UserWithStats, error) {
	users, err := s.users.ListExcludingRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := make([]UserWithStats, 0, len(users))
	for i := range users {
		entry := UserWithStats{User: users[i]}
		switch users[i].Role {
		case domain.RoleHead:
			stats, err := s.headStats(ctx, users[i].ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			entry.HeadStats = stats
		case domain.RoleParticipant:
			total, err := s.queries.CountBySubmitter(ctx, users[i].ID)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			entry.TotalQueries = &total
		}
		result = append(result, entry)
	}
	return result, nil
}

// ListHeads returns all department heads with their active and
// resolved counts, for the admin assignment picker.
func (s *AdminService) ListHeads(ctx context.Context) ([]UserWithStats, error) {
	heads, err := s.users.ListByRole(ctx, domain.RoleHead)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := make([]UserWithStats, 0, len(heads))
	for i := range heads {
		stats, err := s.headStats(ctx, heads[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, UserWithStats{User: heads[i], HeadStats: stats})
	}
	return result, nil
}

// ToggleBlock flips an account's blocked flag. Admin accounts cannot
// be blocked.
func (s *AdminService) ToggleBlock(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if user.Role == domain.RoleAdmin {
		return nil, apperrors.NewForbidden("cannot block admin")
	}

	user.IsBlocked = !user.IsBlocked
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// headStats computes a head's workload counters, with a short-TTL
// Redis cache in front of the counts. A 30s staleness window is fine
// for dashboard numbers.
func (s *AdminService) headStats(ctx context.Context, headID string) (*HeadStats, error) {
	const keyPrefix = "helpdesk:headstats:"

	if client := s.cache.Handle(); client != nil {
		if raw, err := client.Get(ctx, keyPrefix+headID).Result(); err == nil {
			var cached HeadStats
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	active, err := s.queries.CountByAssigneeAndStatus(ctx, headID, domain.QueryStatusAssigned)
	if err != nil {
		return nil, err
	}
	resolved, err := s.queries.CountByAssigneeAndStatus(ctx, headID, domain.QueryStatusResolved)
	if err != nil {
		return nil, err
	}
	stats := &HeadStats{Active: active, Resolved: resolved}

	if client := s.cache.Handle(); client != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := client.Set(ctx, keyPrefix+headID, raw, config.StatsCacheTTL).Err(); err != nil && s.logger != nil {
				s.logger.Debug("head stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}
