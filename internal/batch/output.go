package batch

import (
	"strconv"
	"strings"
)

// FormatIDs renders ids comma separated with no trailing separator.
// No ids renders as the empty string.
func FormatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
