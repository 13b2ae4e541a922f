package intake

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthalyze/healthalyze_backend/internal/service/wizard"
	pkgredis "github.com/healthalyze/healthalyze_backend/pkg/redis"
)

// Set HEALTHALYZE_TEST_REDIS_ADDR to run against a live server.
func TestRedisDrafts(t *testing.T) {
	addr := os.Getenv("HEALTHALYZE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HEALTHALYZE_TEST_REDIS_ADDR not set")
	}

	cfg := pkgredis.DefaultConfig()
	cfg.Addr = addr
	rdb, err := pkgredis.NewRedis(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	d := NewRedisDrafts(rdb, time.Minute)
	subject := "test-" + t.Name()
	t.Cleanup(func() { _ = d.Delete(ctx, subject) })

	snap, err := d.Load(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, snap)

	in := wizard.Snapshot{
		Step:    4,
		Phase:   wizard.PhaseCollecting,
		Answers: wizard.AnswerSet{wizard.FieldAge: wizard.Number(33), wizard.FieldGender: wizard.Choice("Other")},
	}
	require.NoError(t, d.Save(ctx, subject, in))

	snap, err = d.Load(ctx, subject)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, in, *snap)

	ttl, err := rdb.TTL(ctx, redisKeyDraft(subject)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, d.Delete(ctx, subject))
	snap, err = d.Load(ctx, subject)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
