package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserFromContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))

	user := testUser()
	ctx := WithUser(context.Background(), user)
	assert.Same(t, user, UserFromContext(ctx))
}
