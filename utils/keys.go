package utils

import (
	"fmt"
	"time"
)

// TimeOrderedKey builds a sort key that orders lexicographically by t, then by id.
func TimeOrderedKey(t time.Time, id string) string {
	return fmt.Sprintf("%019d%s%s", t.UTC().UnixNano(), KeySeparator, id)
}
