package rng

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Crypto wraps the crypto/rand library
type Crypto struct{}

var fallback *mathrand.Rand
var fallbackOnce sync.Once

// Intn returns a random number from 0 < n.
// If the crypto source is unavailable, it falls back to math/rand. The
// fallback is weaker and reduces shuffle fairness, so it is logged loudly.
func (c Crypto) Intn(n int) int {
	b, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		fallbackOnce.Do(func() {
			logrus.WithError(err).Warn("crypto source unavailable, falling back to math/rand; shuffle fairness is reduced")
			fallback = mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
		})

		return fallback.Intn(n)
	}

	return int(b.Int64())
}
