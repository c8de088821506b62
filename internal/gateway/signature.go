package gateway

import "crypto/subtle"

// SignatureHeader is the inbound webhook header carrying the pre-shared
// secret.
const SignatureHeader = "verif-hash"

// ValidSignature compares the webhook signature header against the configured
// secret in constant time. An absent header never matches.
func ValidSignature(header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}
