package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
)

// redisKeyDraft returns the Redis key for a subject's questionnaire draft.
func redisKeyDraft(subjectID string) string { return "draft:" + subjectID }

// RedisDrafts stores drafts as JSON with a sliding TTL.
type RedisDrafts struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDrafts(rdb *redis.Client, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{rdb: rdb, ttl: ttl}
}

func (r *RedisDrafts) Load(ctx context.Context, subjectID string) (*wizard.Snapshot, error) {
	raw, err := r.rdb.Get(ctx, redisKeyDraft(subjectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	var snap wizard.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &snap, nil
}

func (r *RedisDrafts) Save(ctx context.Context, subjectID string, s wizard.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKeyDraft(subjectID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *RedisDrafts) Delete(ctx context.Context, subjectID string) error {
	if err := r.rdb.Del(ctx, redisKeyDraft(subjectID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
