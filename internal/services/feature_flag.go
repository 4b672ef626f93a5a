package services

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/gtd-backend/internal/data/repos"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/dbctx"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

// defaultFlags apply when a flag has no row yet.
var defaultFlags = map[string]bool{
	types.FlagSignup: true,
	types.FlagAvatar: true,
}

type FeatureFlagService interface {
	IsEnabled(ctx context.Context, key string, user *types.User) (bool, error)
	EnabledFor(ctx context.Context, user *types.User) (map[string]bool, error)
	Set(ctx context.Context, flag *types.FeatureFlag) error
	List(ctx context.Context) ([]*types.FeatureFlag, error)
	// Seed inserts flags from a YAML document. Flags that already exist are left alone.
	Seed(ctx context.Context, raw []byte) (int, error)
}

type featureFlagService struct {
	log      *logger.Logger
	flagRepo repos.FeatureFlagRepo
}

func NewFeatureFlagService(log *logger.Logger, flagRepo repos.FeatureFlagRepo) FeatureFlagService {
	return &featureFlagService{
		log:      log.With("service", "FeatureFlagService"),
		flagRepo: flagRepo,
	}
}

func flagOn(f *types.FeatureFlag, user *types.User) bool {
	if f.Enabled {
		return true
	}
	if user == nil {
		return false
	}
	email := strings.ToLower(user.Email)
	id := user.ID.String()
	for _, allowed := range f.AllowedUsers {
		a := strings.ToLower(strings.TrimSpace(allowed))
		if a == "" {
			continue
		}
		if a == id || (email != "" && a == email) {
			return true
		}
	}
	return false
}

func (s *featureFlagService) IsEnabled(ctx context.Context, key string, user *types.User) (bool, error) {
	flags, err := s.flagRepo.GetByKeys(dbctx.Context{Ctx: ctx}, []string{key})
	if err != nil {
		return false, err
	}
	if len(flags) == 0 {
		return defaultFlags[key], nil
	}
	return flagOn(flags[0], user), nil
}

func (s *featureFlagService) EnabledFor(ctx context.Context, user *types.User) (map[string]bool, error) {
	flags, err := s.flagRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(flags)+len(defaultFlags))
	for k, v := range defaultFlags {
		out[k] = v
	}
	for _, f := range flags {
		out[f.Key] = flagOn(f, user)
	}
	return out, nil
}

func (s *featureFlagService) Set(ctx context.Context, flag *types.FeatureFlag) error {
	if flag == nil || strings.TrimSpace(flag.Key) == "" {
		return fmt.Errorf("flag key required")
	}
	flag.Key = strings.TrimSpace(flag.Key)
	if err := s.flagRepo.Upsert(dbctx.Context{Ctx: ctx}, []*types.FeatureFlag{flag}); err != nil {
		return err
	}
	s.log.Info("Feature flag set", "flag", flag.Key, "enabled", flag.Enabled, "allowed", len(flag.AllowedUsers))
	return nil
}

func (s *featureFlagService) List(ctx context.Context) ([]*types.FeatureFlag, error) {
	return s.flagRepo.List(dbctx.Context{Ctx: ctx})
}

type flagSeedFile struct {
	Flags []struct {
		Key          string   `yaml:"key"`
		Description  string   `yaml:"description"`
		Enabled      bool     `yaml:"enabled"`
		AllowedUsers []string `yaml:"allowed_users"`
	} `yaml:"flags"`
}

func (s *featureFlagService) Seed(ctx context.Context, raw []byte) (int, error) {
	var file flagSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse flag seed: %w", err)
	}
	if len(file.Flags) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(file.Flags))
	for _, f := range file.Flags {
		keys = append(keys, strings.TrimSpace(f.Key))
	}
	existing, err := s.flagRepo.GetByKeys(dbctx.Context{Ctx: ctx}, keys)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, f := range existing {
		have[f.Key] = true
	}

	var toCreate []*types.FeatureFlag
	for _, f := range file.Flags {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return 0, fmt.Errorf("parse flag seed: flag without key")
		}
		if have[key] {
			continue
		}
		have[key] = true
		toCreate = append(toCreate, &types.FeatureFlag{
			Key:          key,
			Description:  f.Description,
			Enabled:      f.Enabled,
			AllowedUsers: datatypes.JSONSlice[string](f.AllowedUsers),
		})
	}
	if len(toCreate) == 0 {
		return 0, nil
	}
	if err := s.flagRepo.Upsert(dbctx.Context{Ctx: ctx}, toCreate); err != nil {
		return 0, err
	}
	s.log.Info("Seeded feature flags", "count", len(toCreate))
	return len(toCreate), nil
}
