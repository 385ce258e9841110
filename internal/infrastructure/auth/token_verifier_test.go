package auth

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHMACTokenVerifier(t *testing.T) {
	issuedAt := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	v := NewHMACTokenVerifier("s3cret", zap.NewNop())
	v.now = func() time.Time { return issuedAt }

	token := v.Issue("user-42", time.Hour)

	t.Run("valid token", func(t *testing.T) {
		userID, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", userID)
	})

	tests := []struct {
		name  string
		token string
		now   time.Time
	}{
		{"expired", token, issuedAt.Add(2 * time.Hour)},
		{"tampered user", "user-43" + token[len("user-42"):], issuedAt},
		{"empty", "", issuedAt},
		{"no separators", "garbage", issuedAt},
		{"missing expiry", "user-42.abcdef", issuedAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v.now = func() time.Time { return tt.now }
			_, err := v.Verify(context.Background(), tt.token)
			assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
		})
	}

	t.Run("other secret", func(t *testing.T) {
		other := NewHMACTokenVerifier("different", zap.NewNop())
		other.now = func() time.Time { return issuedAt }
		_, err := other.Verify(context.Background(), token)
		assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
	})
}
