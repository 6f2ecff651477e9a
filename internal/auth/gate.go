// Package auth gates admin access to an instance.
//
// An instance may carry an admin password. Requests prove knowledge of it
// with HTTP Basic credentials; the user-id half is ignored.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/easycomment/easycomment-server/internal/domain"
)

const basicPrefix = "Basic "

// Authorize reports whether header grants admin access to instance.
//
// An instance without a password is open to everyone. Otherwise header must
// be "Basic " followed by base64 of "id:secret" (or of the bare secret when
// there is no colon) and the secret must equal the password exactly.
func Authorize(instance *domain.Instance, header string) bool {
	if instance == nil {
		return false
	}
	if !instance.RequiresAuth() {
		return true
	}

	secret, ok := Secret(header)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(*instance.AdminPassword)) == 1
}

// Secret extracts the secret half of a Basic credential. It returns false
// for a missing prefix, invalid base64 or non-UTF-8 content.
func Secret(header string) (string, bool) {
	encoded, ok := strings.CutPrefix(header, basicPrefix)
	if !ok {
		return "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}

	credentials := string(decoded)
	if _, secret, found := strings.Cut(credentials, ":"); found {
		return secret, true
	}
	return credentials, true
}
