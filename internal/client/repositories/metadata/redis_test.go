package metadata

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server named by INSIGHTPULSE_TEST_REDIS, e.g.
// redis://localhost:6379/15.
func TestRedis_SetGetDelete(t *testing.T) {
	url := os.Getenv("INSIGHTPULSE_TEST_REDIS")
	if url == "" {
		t.Skip("INSIGHTPULSE_TEST_REDIS not set")
	}
	ctx := context.Background()

	client, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	hash := "insightpulse:test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), hash) })
	r := NewRedisRepository(client, hash)

	v, err := r.Get(ctx, "auth-storage")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "auth-storage", []byte("payload")))
	v, err = r.Get(ctx, "auth-storage")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), v)

	require.NoError(t, r.Delete(ctx, "auth-storage"))
	v, err = r.Get(ctx, "auth-storage")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url://")
	require.Error(t, err)
}
