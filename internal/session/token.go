// Package session signs and verifies the stateless admin session token.
//
// A token is "<issuedAtSeconds>.<hex sha256(secret|issuedAtSeconds)>". It
// carries no expiry: the only lifetime bound is the cookie Max-Age set when
// the token is issued, so a copied token stays valid until the secret rotates.
package session

import (
	"strconv"
	"strings"

	"github.com/folio/site-server-go/internal/util"
)

// Codec issues and verifies admin session tokens for a single secret.
type Codec struct {
	secret string
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: secret}
}

// Issue returns the token for the given issue time in unix seconds.
func (c *Codec) Issue(nowSeconds int64) string {
	ts := strconv.FormatInt(nowSeconds, 10)
	return ts + "." + c.sign(ts)
}

// Verify reports whether token was issued with this codec's secret.
func (c *Codec) Verify(token string) bool {
	ts, signature, ok := strings.Cut(token, ".")
	if !ok || ts == "" || signature == "" {
		return false
	}
	return util.ConstantTimeEqual(signature, c.sign(ts))
}

func (c *Codec) sign(ts string) string {
	return util.HashToken(c.secret + "|" + ts)
}
