package http

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 GitHub still sends X-Hub-Signature as HMAC-SHA1
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// VerifySignature checks the GitHub webhook signature headers against body.
// Every header that is present must match. A request carrying neither
// header is accepted.
func VerifySignature(secret string, body []byte, sha1Header, sha256Header string) bool {
	if sha256Header != "" && !hmac.Equal([]byte(sha256Header), []byte(sign(sha256.New, "sha256=", secret, body))) {
		return false
	}
	if sha1Header != "" && !hmac.Equal([]byte(sha1Header), []byte(sign(sha1.New, "sha1=", secret, body))) {
		return false
	}
	return true
}

func sign(h func() hash.Hash, prefix, secret string, body []byte) string {
	mac := hmac.New(h, []byte(secret))
	mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}
