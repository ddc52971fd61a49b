// Package reference generates the external-facing transaction references
// shown to users and used for status polling.
package reference

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// New builds a reference of the form <PREFIX>-<base36 timestamp>-<random>,
// e.g. LOMAL-LZX4K2M9-7Q3F. The millisecond timestamp plus a 4-character
// random suffix keeps references globally unique.
func New(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", prefix, ts, randomSuffix(4))
}

func randomSuffix(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for range n {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform is broken; fall back
			// to a timestamp-derived character rather than panicking.
			b.WriteByte(alphabet[time.Now().Nanosecond()%len(alphabet)])
			continue
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}
