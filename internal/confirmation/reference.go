package confirmation

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReference builds a display reference: "BK", the last six digits of the
// millisecond clock and three random base-36 characters.
func NewReference(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	} else {
		ms = strings.Repeat("0", 6-len(ms)) + ms
	}

	var b strings.Builder
	b.Grow(11)
	b.WriteString("BK")
	b.WriteString(ms)
	for i := 0; i < 3; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}
