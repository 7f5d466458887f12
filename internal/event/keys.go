package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Key prefix for DynamoDB sort keys.
const (
	PrefixEvent = "EVENT#"
)

// Item type and attribute names for DynamoDB items.
const (
	TypeEvent   = "EVENT"
	AttrPayload = "payload"
)

// SortKey builds an event sort key from a sequence number and a tie-break
// id. Both components are zero-padded so lexicographic order matches
// numeric order: EVENT#0000000042#000007.
func SortKey(seq int64, id int) string {
	return fmt.Sprintf("%s%010d#%06d", PrefixEvent, seq, id)
}

// UniqueSortKey builds a timestamp-derived sort key with a random tie-break
// so concurrent writers in the same second never collide.
func UniqueSortKey(t time.Time) string {
	return fmt.Sprintf("%s%010d#%s", PrefixEvent, t.Unix(), uuid.NewString()[:6])
}
