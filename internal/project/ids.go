package project

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Project ids must be UUIDs with a valid version and variant. Anything
// else found in storage is corrupt and never reused for server
// operations.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidUUID reports whether s is a well-formed UUID (version 1-5,
// RFC 4122 variant). Matching is case-insensitive.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuidPattern.MatchString(strings.ToLower(s))
}

// MintProjectID returns a fresh v4 project id. If the secure random
// source fails it falls back to a manual v4 construction that still
// satisfies the version/variant bit pattern.
func MintProjectID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	log.Printf("[warn] operation=mint_project_id message=secure random unavailable error=%v", err)
	return fallbackUUID()
}

func fallbackUUID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant

	hexs := hex.EncodeToString(b[:])
	return hexs[0:8] + "-" + hexs[8:12] + "-" + hexs[12:16] + "-" + hexs[16:20] + "-" + hexs[20:32]
}
