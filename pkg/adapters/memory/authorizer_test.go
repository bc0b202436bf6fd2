package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

func TestMemoryAuthorizer_Contract(t *testing.T) {
	auth := memory.NewAuthorizer()
	ports.RunAuthorizerContract(t, auth, func(_ *testing.T, subject, permission string) {
		auth.Grant(subject, permission)
	})
}

func TestMemoryAuthorizer_Wildcards(t *testing.T) {
	auth := memory.NewAuthorizer()
	auth.Grant("ops", "user.*", "deploy")

	cc := domain.NewCommandContext(context.Background())
	domain.Replace(cc, domain.SubjectKey, "ops")

	assert.True(t, auth.Authorize("user.remove", cc))
	assert.True(t, auth.Authorize("deploy", cc))
	assert.False(t, auth.Authorize("billing.read", cc))
	assert.Equal(t, []string{"deploy", "user.*"}, auth.Permissions("ops"))

	auth.Revoke("ops", "user.*", "deploy")
	assert.False(t, auth.Authorize("user.remove", cc))
	assert.Empty(t, auth.Permissions("ops"))
}
