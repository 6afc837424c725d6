// Package timex provides a JSON-friendly time.Duration so on-disk config
// can write intervals either as a Go duration string ("10m") or as a raw
// integer count of nanoseconds, the same convenience the reference
// client's server config reaches for when it needs a duration field in
// JSON.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration with JSON marshaling that accepts both
// string ("10m", "500ms") and numeric (nanosecond count) forms.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v)
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("timex: invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("timex: unsupported duration value %v", raw)
	}
}
