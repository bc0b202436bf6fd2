package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
)

// RunAuthorizerContract runs a suite of tests to verify that an Authorizer
// implementation adheres to the defined interface contract. grant must make
// subject hold permission in the backing store.
func RunAuthorizerContract(t *testing.T, auth Authorizer, grant func(t *testing.T, subject, permission string)) {
	subject := "contract-subject-" + time.Now().Format("20060102150405")

	contextFor := func(subject string) *domain.CommandContext {
		cc := domain.NewCommandContext(context.Background())
		if subject != "" {
			domain.Replace(cc, domain.SubjectKey, subject)
		}
		return cc
	}

	t.Run("Granted Permission", func(t *testing.T) {
		grant(t, subject, "user.add")
		assert.True(t, auth.Authorize("user.add", contextFor(subject)))
	})

	t.Run("Other Permission", func(t *testing.T) {
		grant(t, subject, "user.add")
		assert.False(t, auth.Authorize("user.remove", contextFor(subject)))
	})

	t.Run("Other Subject", func(t *testing.T) {
		grant(t, subject, "user.add")
		assert.False(t, auth.Authorize("user.add", contextFor(subject+"-other")))
	})

	t.Run("Anonymous", func(t *testing.T) {
		assert.False(t, auth.Authorize("user.add", contextFor("")))
	})
}
