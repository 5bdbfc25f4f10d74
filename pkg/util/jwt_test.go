package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServiceTokenRoundTrip(t *testing.T) {
	token, err := GenerateServiceToken("recurring-task-service", "s3cret", time.Minute)
	require.NoError(t, err)

	svc, err := ParseServiceToken(token, "s3cret")
	require.NoError(t, err)
	require.Equal(t, "recurring-task-service", svc)
}

func TestServiceTokenWrongSecretRejected(t *testing.T) {
	token, err := GenerateServiceToken("notification-service", "s3cret", time.Minute)
	require.NoError(t, err)

	_, err = ParseServiceToken(token, "other-secret")
	require.Error(t, err)
}

func TestServiceTokenExpiredRejected(t *testing.T) {
	token, err := GenerateServiceToken("notification-service", "s3cret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseServiceToken(token, "s3cret")
	require.Error(t, err)
}

func TestServiceTokenGarbageRejected(t *testing.T) {
	_, err := ParseServiceToken("not.a.token", "s3cret")
	require.Error(t, err)
}
