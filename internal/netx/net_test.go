package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/stretchr/testify/require"
)

func TestPutBytes_Success(t *testing.T) {
	payload := []byte("hello, chunk")

	var gotBody []byte
	var gotCT, gotMethod string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = b
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	_, err := PutBytes(context.Background(), ts.Client(), ts.URL, payload, nil)
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "application/octet-stream", gotCT)
	require.Equal(t, payload, gotBody)
}

func TestPutBytes_NonOKClassifiedAsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	_, err := PutBytes(context.Background(), ts.Client(), ts.URL, []byte("x"), nil)
	require.Error(t, err)
	require.True(t, common.IsKind(err, common.KindFatal))
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   common.Kind
	}{
		{200, ""},
		{401, common.KindAuth},
		{403, common.KindAuth},
		{404, common.KindNotFound},
		{409, common.KindConflict},
		{429, common.KindRateLimited},
		{500, common.KindTransient},
		{503, common.KindTransient},
		{400, common.KindFatal},
	}

	for _, c := range cases {
		err := ClassifyStatus(c.status, "")
		if c.kind == "" {
			require.NoError(t, err, "status %d", c.status)
			continue
		}
		require.Error(t, err, "status %d", c.status)
		require.True(t, common.IsKind(err, c.kind), "status %d want kind %s", c.status, c.kind)
	}
}

func TestClassifyStatus_RateLimitedCarriesRetryAfter(t *testing.T) {
	err := ClassifyStatus(http.StatusTooManyRequests, "5")
	var rle *RateLimitedError
	require.ErrorAs(t, err, &rle)
	require.Equal(t, int64(5), rle.RetryAfter.Milliseconds()/1000)
}

func TestGetBytes_ReturnsBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ciphertext-bytes"))
	}))
	defer ts.Close()

	body, err := GetBytes(context.Background(), ts.Client(), ts.URL, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("ciphertext-bytes"), body)
}
