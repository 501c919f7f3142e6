package user

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"bountyhub/pkg/db/option"
	"bountyhub/pkg/errutil"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/repository"
	"bountyhub/services/access"
	"bountyhub/services/reward"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxWalletLength = 128

type Service struct {
	db        *gorm.DB
	repo      repository.Repository[User]
	allowlist access.Allowlist
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Allowlist access.Allowlist
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		repo:      repository.ProvideStore[User](p.DB),
		allowlist: p.Allowlist,
	}
}

// WithTrx returns a copy of the service whose reads and writes run in tx.
func (s *Service) WithTrx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	c.repo = s.repo.WithTrx(tx)
	return &c
}

// SyncProfile creates or refreshes the profile of the authenticated user.
// Organizations outside the allowlist are rejected before anything is stored.
func (s *Service) SyncProfile(ctx context.Context, userID string, req SyncProfileRequest) (*User, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("user_id", userID))

	org := strings.TrimSpace(req.Organization)
	if !s.allowlist.Permits(org) {
		zapLog.Warn("organization not allowed", zap.String("organization", org))
		return nil, errutil.Forbidden("unauthorized organization", nil)
	}

	if strings.TrimSpace(req.Username) == "" {
		return nil, errutil.ValidationFailed("invalid profile", nil, errutil.WithDetail("username", "is required"))
	}

	exist, err := s.repo.FindOne(ctx, &User{ID: userID})
	if err != nil {
		zapLog.Error("failed to get user", zap.Error(err))
		return nil, errutil.Internal("failed to sync profile", err)
	}

	if exist == nil {
		u := &User{
			ID:           userID,
			GithubID:     req.GithubID,
			Username:     strings.TrimSpace(req.Username),
			AvatarURL:    req.AvatarURL,
			Email:        req.Email,
			Organization: org,
		}
		if err := s.repo.Create(ctx, u); err != nil {
			zapLog.Error("failed to create user", zap.Error(err))
			return nil, errutil.Internal("failed to sync profile", err)
		}
		return u, nil
	}

	if err := s.repo.Update(ctx, userID, map[string]any{
		"github_id":    req.GithubID,
		"username":     strings.TrimSpace(req.Username),
		"avatar_url":   req.AvatarURL,
		"email":        req.Email,
		"organization": org,
	}); err != nil {
		zapLog.Error("failed to update user", zap.Error(err))
		return nil, errutil.Internal("failed to sync profile", err)
	}

	return s.Get(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindOne(ctx, &User{ID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to get user", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	return u, nil
}

// UpdateWallet sets the payout address. An empty address clears it.
func (s *Service) UpdateWallet(ctx context.Context, userID, address string) (*User, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	address = strings.TrimSpace(address)
	if err := validateWallet(address); err != nil {
		return nil, err
	}

	var value any
	if address != "" {
		value = address
	}

	if err := s.repo.Update(ctx, userID, map[string]any{"wallet_address": value}); err != nil {
		logger.FromContext(ctx).Error("failed to update wallet", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.Internal("failed to update wallet", err)
	}

	return s.Get(ctx, userID)
}

func validateWallet(address string) error {
	if len(address) > maxWalletLength {
		return errutil.ValidationFailed("invalid wallet address", nil,
			errutil.WithDetail("wallet_address", fmt.Sprintf("must be at most %d characters", maxWalletLength)))
	}
	if strings.IndexFunc(address, unicode.IsSpace) >= 0 {
		return errutil.ValidationFailed("invalid wallet address", nil,
			errutil.WithDetail("wallet_address", "must not contain whitespace"))
	}
	return nil
}

// GetByIDs loads the reward view of the given users. Unknown ids are absent
// from the result.
func (s *Service) GetByIDs(ctx context.Context, ids []string) (map[string]reward.User, error) {
	out := make(map[string]reward.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	users, err := s.repo.Find(ctx, nil, option.WithIn("id", ids))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	for _, u := range users {
		out[u.ID] = u.ToReward()
	}
	return out, nil
}

// ListOrganizations returns the distinct organizations of registered users.
func (s *Service) ListOrganizations(ctx context.Context) ([]string, error) {
	var raw []string
	if err := s.db.WithContext(ctx).Model(&User{}).
		Distinct("organization").
		Where("organization <> ?", "").
		Pluck("organization", &raw).Error; err != nil {
		return nil, errutil.Internal("failed to list organizations", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, org := range raw {
		org = strings.TrimSpace(org)
		if org == "" {
			continue
		}
		if _, ok := seen[org]; ok {
			continue
		}
		seen[org] = struct{}{}
		out = append(out, org)
	}
	sort.Strings(out)

	return out, nil
}
