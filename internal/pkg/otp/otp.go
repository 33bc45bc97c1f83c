package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-length decimal codes without a leading zero.
type Numeric struct {
	digits otp.Digits
	min    *big.Int
	span   *big.Int
	rand   io.Reader
}

// NewNumeric returns a Numeric generator.
//
// Anything other than 6 or 8 digits falls back to 6.
func NewNumeric(digits otp.Digits) *Numeric {
	return newNumeric(digits, rand.Reader)
}

func newNumeric(digits otp.Digits, r io.Reader) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits.Length()-1)), nil)
	high := new(big.Int).Mul(low, big.NewInt(10))

	return &Numeric{
		digits: digits,
		min:    low,
		span:   new(big.Int).Sub(high, low),
		rand:   r,
	}
}

// Digits returns the configured code length.
func (n *Numeric) Digits() otp.Digits {
	return n.digits
}

// Generate returns a code in [10^(d-1), 10^d).
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, n.span)
	if err != nil {
		return "", err
	}

	v.Add(v, n.min)

	return n.digits.Format(int32(v.Int64())), nil
}
