package flags

import (
	"context"

	"github.com/code/app-dub-agpl/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Flag names attached to workspace responses
const (
	FlagLinkFolders = "linkFolders"
	FlagWebhooks    = "webhooks"
	FlagConversions = "conversions"
	FlagPartners    = "partners"
	FlagABTesting   = "abTesting"
)

// Store reads per-workspace flag overrides
type Store interface {
	Overrides(ctx context.Context, workspaceID string) (map[string]bool, error)
}

// Compute returns the effective flag set for a workspace: plan defaults
// merged with stored overrides. An override lookup failure degrades to the
// plan defaults so a flag-store outage never fails a workspace read.
func Compute(ctx context.Context, store Store, w *model.Workspace) map[string]bool {
	result := map[string]bool{
		FlagLinkFolders: w.PaidPlan(),
		FlagWebhooks:    w.PlanAtLeast(model.PlanPro),
		FlagConversions: w.PlanAtLeast(model.PlanBusiness),
		FlagPartners:    w.PartnersEnabled,
		FlagABTesting:   w.PlanAtLeast(model.PlanAdvanced),
	}

	if store == nil {
		return result
	}

	overrides, err := store.Overrides(ctx, w.ID)
	if err != nil {
		zap.L().Warn("Feature flag override lookup failed, using plan defaults",
			zap.String("workspace_id", w.ID),
			zap.Error(err))
		return result
	}

	for name, enabled := range overrides {
		result[name] = enabled
	}

	return result
}

// flagsKeyPrefix keys the per-workspace override hashes
const flagsKeyPrefix = "flags:workspace:"

// RedisStore reads overrides from a per-workspace Redis hash. Hash values of
// "true" or "1" enable a flag, anything else disables it.
type RedisStore struct {
	Client *redis.Client
}

// Overrides loads the override hash for a workspace
func (s *RedisStore) Overrides(ctx context.Context, workspaceID string) (map[string]bool, error) {
	values, err := s.Client.HGetAll(ctx, flagsKeyPrefix+workspaceID).Result()
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]bool, len(values))
	for name, value := range values {
		overrides[name] = value == "true" || value == "1"
	}
	return overrides, nil
}
