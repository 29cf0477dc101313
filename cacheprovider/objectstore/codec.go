package objectstore

import (
	"encoding/json"
	"time"

	"github.com/querycore/querycore/cacheprovider"
)

func timeFromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// wireEntry mirrors cacheprovider.Entry but with LastUpdated as a Unix
// millisecond timestamp, matching the persisted-state layout spec.md
// prescribes for both providers ("missing data or non-numeric
// lastUpdated MUST be treated as cache miss").
type wireEntry struct {
	Data        json.RawMessage `json:"data"`
	LastUpdated int64           `json:"lastUpdated"`
}

func encodeEntry(e cacheprovider.Entry) ([]byte, error) {
	return json.Marshal(wireEntry{
		Data:        e.Data,
		LastUpdated: e.LastUpdated.UnixMilli(),
	})
}

func decodeEntry(b []byte) (cacheprovider.Entry, error) {
	var w wireEntry
	if err := json.Unmarshal(b, &w); err != nil {
		return cacheprovider.Entry{}, err
	}
	if len(w.Data) == 0 || w.LastUpdated <= 0 {
		// Missing data or non-numeric/zero lastUpdated: forward-compatible
		// miss per spec, not an error.
		return cacheprovider.Entry{}, nil
	}
	return cacheprovider.Entry{
		Data:        w.Data,
		LastUpdated: timeFromUnixMilli(w.LastUpdated),
	}, nil
}
