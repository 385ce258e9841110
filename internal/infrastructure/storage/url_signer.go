package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSignatureInvalid is returned when a signed URL's signature does not match
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrSignatureExpired is returned when a signed URL is past its expiry
	ErrSignatureExpired = errors.New("signature expired")
)

// URLSigner issues and checks expiring HMAC signatures for local blob downloads
type URLSigner struct {
	secret  []byte
	baseURL string
}

// NewURLSigner creates a signer producing URLs under baseURL (e.g. "http://localhost:8080")
func NewURLSigner(secret, baseURL string) *URLSigner {
	return &URLSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SignedURL returns "<base>/files/<bucket>/<path>?expires=<unix>&signature=<hex>"
func (s *URLSigner) SignedURL(bucket, path string, expires time.Time) string {
	exp := expires.Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("signature", s.sign(bucket, path, exp))

	escaped := make([]string, 0, strings.Count(path, "/")+1)
	for _, seg := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return fmt.Sprintf("%s/files/%s/%s?%s", s.baseURL, url.PathEscape(bucket), strings.Join(escaped, "/"), q.Encode())
}

// Verify checks signature and expiry for a bucket/path pair
func (s *URLSigner) Verify(bucket, path, expires, signature string, now time.Time) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}

	expected := s.sign(bucket, path, exp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	if now.Unix() > exp {
		return ErrSignatureExpired
	}
	return nil
}

func (s *URLSigner) sign(bucket, path string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", bucket, path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
