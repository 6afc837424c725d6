package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON_String(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"10m"`), &d))
	require.Equal(t, 10*time.Minute, d.Duration)
}

func TestDuration_UnmarshalJSON_Nanoseconds(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`1500000000`), &d))
	require.Equal(t, 1500*time.Millisecond, d.Duration)
}

func TestDuration_UnmarshalJSON_InvalidString(t *testing.T) {
	var d Duration
	err := json.Unmarshal([]byte(`"not-a-duration"`), &d)
	require.Error(t, err)
}

func TestDuration_UnmarshalJSON_WrongType(t *testing.T) {
	var d Duration
	err := json.Unmarshal([]byte(`true`), &d)
	require.Error(t, err)
}

func TestDuration_MarshalJSON(t *testing.T) {
	d := Duration{Duration: 90 * time.Second}
	out, err := json.Marshal(d)
	require.NoError(t, err)
	require.JSONEq(t, `"1m30s"`, string(out))
}

func TestDuration_RoundTrip(t *testing.T) {
	type wrapper struct {
		TTL Duration `json:"ttl"`
	}
	in := wrapper{TTL: Duration{Duration: 5 * time.Minute}}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out wrapper
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, in.TTL.Duration, out.TTL.Duration)
}
