package report

import (
	"fmt"
	"strconv"
)

// GiBString renders a raw byte-count string as a two-decimal binary-gibibyte
// value. The input is reduced to its digits first, which tolerates
// unit-suffixed values from the metadata source; anything without digits
// renders as "0.00 GiB".
func GiBString(raw string) string {
	return fmt.Sprintf("%.2f GiB", float64(parseBytes(raw))/(1<<30))
}

// parseBytes strips every non-digit character from raw and parses the rest
// as a byte count. Empty or unparseable input yields zero.
func parseBytes(raw string) uint64 {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}

	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
