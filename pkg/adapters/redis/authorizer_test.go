package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

func newAuthorizer(t *testing.T) (*redis.Authorizer, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, redis.WithPrefix("test:grants:")), mr
}

func TestRedisAuthorizer_Contract(t *testing.T) {
	auth, _ := newAuthorizer(t)
	ports.RunAuthorizerContract(t, auth, func(t *testing.T, subject, permission string) {
		require.NoError(t, auth.Grant(context.Background(), subject, permission))
	})
}

func TestRedisAuthorizer_Grants(t *testing.T) {
	auth, mr := newAuthorizer(t)
	ctx := context.Background()

	require.NoError(t, auth.Grant(ctx, "ops", "user.*", "deploy"))
	members, err := mr.Members("test:grants:ops")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user.*", "deploy"}, members)

	cc := domain.NewCommandContext(ctx)
	domain.Replace(cc, domain.SubjectKey, "ops")
	assert.True(t, auth.Authorize("deploy", cc))
	assert.True(t, auth.Authorize("user.add", cc))
	assert.False(t, auth.Authorize("billing", cc))

	require.NoError(t, auth.Revoke(ctx, "ops", "user.*"))
	assert.False(t, auth.Authorize("user.add", cc))
}

func TestRedisAuthorizer_BackendDown(t *testing.T) {
	auth, mr := newAuthorizer(t)
	require.NoError(t, auth.Grant(context.Background(), "ops", "deploy"))
	mr.Close()

	cc := domain.NewCommandContext(context.Background())
	domain.Replace(cc, domain.SubjectKey, "ops")
	assert.False(t, auth.Authorize("deploy", cc))
}
