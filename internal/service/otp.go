package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpLow  = 100000
	otpHigh = 999999
)

// IssueOTP generates a 6-digit numeric verification code drawn uniformly from
// [100000, 999999]. The low bound keeps the code at exactly six digits. The
// code carries no expiry and is not stored; it is purely a friction step for
// referred users.
func IssueOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpHigh-otpLow+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpLow), nil
}
