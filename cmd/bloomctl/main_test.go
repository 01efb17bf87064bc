package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patelashutosh/bloom-store/internal/identity"
)

func TestToken(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"token", "--user", "u-123", "--email", "a@example.com", "--secret", "s3cret"}, &out)
	require.NoError(t, err)

	id, err := identity.NewAuthenticator("s3cret", time.Hour).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-123", id.UserID)
	assert.Equal(t, "a@example.com", id.Email)
}

func TestToken_RequiresUserAndSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	assert.Error(t, run([]string{"token", "--secret", "s3cret"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"token", "--user", "u-123"}, &bytes.Buffer{}))
}

func TestUnknownCommand(t *testing.T) {
	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"refund"}, &bytes.Buffer{}))
}
