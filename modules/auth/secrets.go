package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// opaqueTokenBytes is the entropy of verification and reset tokens.
	opaqueTokenBytes = 20

	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 8
)

// newOpaqueToken returns a random hex token for email links.
func newOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// hashResetToken returns the stored form of a password reset token.
func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// InviteCodeGenerator produces invite codes.
type InviteCodeGenerator func() string

// NewInviteCodeGenerator returns a generator of 8-character A-Z0-9 codes.
func NewInviteCodeGenerator() (InviteCodeGenerator, error) {
	gen, err := nanoid.CustomASCII(inviteCodeAlphabet, inviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite code generator: %w", err)
	}
	return InviteCodeGenerator(gen), nil
}
