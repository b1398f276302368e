package domain

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
)

// idLength is the number of hex characters kept from the digest.
const idLength = 12

// IncidentID derives the stable identifier for an incident from its canonical
// URL and title. It is case-sensitive: any change to either input yields a
// different ID. Published datasets and override files key on these IDs, so
// the digest and separator must not change.
func IncidentID(url, title string) string {
	return shortDigest(url+"|"+title, idLength)
}

// shortDigest returns the first n hex characters of SHA-1(s).
func shortDigest(s string, n int) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:n]
}
