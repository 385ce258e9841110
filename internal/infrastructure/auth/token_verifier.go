// Package auth verifies the bearer tokens presented to the HTTP API.
//
// A token has the form "<user_id>.<expires_unix>.<hex hmac-sha256>", where the
// MAC covers "<user_id>.<expires_unix>" under the configured secret.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/invoice-service/internal/application/port"
	"github.com/garyjia/invoice-service/internal/domain/apperror"
	"go.uber.org/zap"
)

// HMACTokenVerifier implements port.TokenVerifier
type HMACTokenVerifier struct {
	secret []byte
	logger *zap.Logger
	now    func() time.Time
}

// NewHMACTokenVerifier creates a verifier for tokens signed with secret
func NewHMACTokenVerifier(secret string, logger *zap.Logger) *HMACTokenVerifier {
	return &HMACTokenVerifier{
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// Issue creates a token for userID valid for ttl
func (v *HMACTokenVerifier) Issue(userID string, ttl time.Duration) string {
	payload := userID + "." + strconv.FormatInt(v.now().Add(ttl).Unix(), 10)
	return payload + "." + v.mac(payload)
}

// Verify returns the user id carried by a valid, unexpired token
func (v *HMACTokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	// split from the right so user ids may themselves contain dots
	sigAt := strings.LastIndexByte(token, '.')
	if sigAt <= 0 {
		return "", apperror.New(apperror.KindUnauthenticated, "malformed token")
	}
	payload, sig := token[:sigAt], token[sigAt+1:]

	expAt := strings.LastIndexByte(payload, '.')
	if expAt <= 0 {
		return "", apperror.New(apperror.KindUnauthenticated, "malformed token")
	}
	userID, expRaw := payload[:expAt], payload[expAt+1:]

	if !hmac.Equal([]byte(v.mac(payload)), []byte(sig)) {
		v.logger.Debug("Rejected token with bad signature", zap.String("user_id", userID))
		return "", apperror.New(apperror.KindUnauthenticated, "invalid token")
	}

	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return "", apperror.New(apperror.KindUnauthenticated, "malformed token")
	}
	if v.now().Unix() > exp {
		return "", apperror.New(apperror.KindUnauthenticated, "token expired")
	}
	return userID, nil
}

func (v *HMACTokenVerifier) mac(payload string) string {
	m := hmac.New(sha256.New, v.secret)
	m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

var _ port.TokenVerifier = (*HMACTokenVerifier)(nil)
