package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// InviteCodeAlphabet leaves out characters that are easy to confuse (0/O, 1/I).
const InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const InviteCodeLength = 6

// GenerateInviteCode generates a random 6-character invite code.
func GenerateInviteCode() (string, error) {
	size := big.NewInt(int64(len(InviteCodeAlphabet)))
	code := make([]byte, InviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		code[i] = InviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
