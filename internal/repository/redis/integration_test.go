//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/gophauth-server/internal/model"
	repo "github.com/dtroode/gophauth-server/internal/repository/redis"
	"github.com/dtroode/gophauth-server/internal/testutil"
)

var redisURL string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic(err)
	}
	redisURL = fmt.Sprintf("redis://%s:%s/0", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestSessionRepository_Integration(t *testing.T) {
	ctx := context.Background()
	rdb, err := repo.NewClient(ctx, redisURL, testutil.MakeNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	sr := repo.NewSessionRepository(rdb, time.Minute)
	now := time.Now().UTC().Truncate(time.Millisecond)

	s := model.Session{ID: uuid.New(), TokenHash: []byte("hash-1"), AccountIdentifier: "alice", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, sr.Create(ctx, s))
	require.ErrorIs(t, sr.Create(ctx, s), model.ErrAlreadyExists)

	got, err := sr.GetByTokenHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, sr.DeleteByTokenHash(ctx, s.TokenHash))
	require.NoError(t, sr.DeleteByTokenHash(ctx, s.TokenHash))
	_, err = sr.GetByTokenHash(ctx, s.TokenHash)
	require.ErrorIs(t, err, model.ErrNotFound)

	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, sr.Create(ctx, model.Session{ID: uuid.New(), TokenHash: []byte(h), AccountIdentifier: "bob", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	}
	n, err := sr.DeleteByAccount(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	// Expired sessions stay readable during retention.
	expired := model.Session{ID: uuid.New(), TokenHash: []byte("old"), AccountIdentifier: "carol", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Second)}
	require.NoError(t, sr.Create(ctx, expired))
	got, err = sr.GetByTokenHash(ctx, expired.TokenHash)
	require.NoError(t, err)
	require.True(t, got.IsExpiredAt(time.Now(), 0))

	require.NoError(t, sr.Ping(ctx))
}
