package switchbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"
)

// Header names expected by the API. They are written in this exact case.
const (
	headerAuthorization = "Authorization"
	headerSign          = "sign"
	headerTimestamp     = "t"
	headerNonce         = "nonce"
)

// AuthContext holds the credentials of exactly one request.
type AuthContext struct {
	// Token is the open token, sent as the Authorization header.
	Token string
	// Timestamp is the epoch time in milliseconds the signature was made at.
	Timestamp int64
	// Nonce is the configured static nonce.
	Nonce string
	// Sign is the base64 HMAC-SHA256 signature.
	Sign string
}

// Sign returns base64(HMAC-SHA256(secret, token + t + nonce)).
// The payload is the UTF-8 concatenation without delimiters and t is
// rendered in decimal.
func Sign(token, secret, nonce string, t int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token + strconv.FormatInt(t, 10) + nonce))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewAuthContext signs a request made at now.
func NewAuthContext(token, secret, nonce string, now time.Time) AuthContext {
	t := now.UnixMilli()

	return AuthContext{
		Token:     token,
		Timestamp: t,
		Nonce:     nonce,
		Sign:      Sign(token, secret, nonce, t),
	}
}

// Apply writes the authentication headers.
func (a AuthContext) Apply(h http.Header) {
	h.Set(headerAuthorization, a.Token)

	// Direct map writes keep the lowercase names instead of canonicalizing them.
	h[headerSign] = []string{a.Sign}
	h[headerTimestamp] = []string{strconv.FormatInt(a.Timestamp, 10)}
	h[headerNonce] = []string{a.Nonce}
}
