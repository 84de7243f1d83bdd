// README: Booking code and verification code generation.
package booking

import (
	"crypto/rand"
	"math/big"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// bookingCodeRetries bounds fresh code draws after a duplicate rejection.
const bookingCodeRetries = 3

// NewBookingCode builds the human-readable booking id: "BK" + YYMMDD + four
// characters drawn uniformly from [A-Z0-9]. Uniqueness is the store's job.
func NewBookingCode(t time.Time) string {
	buf := make([]byte, 0, 12)
	buf = append(buf, "BK"...)
	buf = t.AppendFormat(buf, "060102")
	for i := 0; i < 4; i++ {
		buf = append(buf, codeAlphabet[randIndex(len(codeAlphabet))])
	}
	return string(buf)
}

// NewVerificationCode returns a six-digit decimal OTP.
func NewVerificationCode() string {
	digits := make([]byte, 6)
	for i := range digits {
		digits[i] = byte('0' + randIndex(10))
	}
	return string(digits)
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		panic(err)
	}
	return int(v.Int64())
}
