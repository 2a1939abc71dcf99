package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBatch_Strict(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/batch?tasks=5&sleep=1")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-Api-Response-Code"))

	env := decode[batchData](t, rec)
	require.True(t, env.OK())
	require.Len(t, env.Data.Values, 5)
	for i, v := range env.Data.Values {
		require.Equal(t, i, v.Index, "values must follow submission order")
		require.True(t, strings.HasPrefix(v.Worker, "api-"), "unexpected worker %q", v.Worker)
	}
	require.Equal(t, 5, env.Data.Summary.Succeeded)
}

func TestBatch_StrictFailure(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/batch?tasks=4&sleep=1&fail=2")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1002", rec.Header().Get("X-Api-Response-Code"))

	env := decode[any](t, rec)
	require.Equal(t, codeBatchFailed, env.Code)
	require.Contains(t, env.Message, "task 2")
	require.Contains(t, env.Message, "injected failure")
}

func TestBatch_Partial(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/batch?mode=partial&tasks=5&sleep=1&fail=1&empty=2")

	env := decode[batchData](t, rec)
	require.Equal(t, codePartial, env.Code)
	require.Len(t, env.Data.Errors, 1)
	require.Contains(t, env.Data.Errors[0], "task 1")

	var indexes []int
	for _, v := range env.Data.Values {
		indexes = append(indexes, v.Index)
	}
	require.Equal(t, []int{0, 3, 4}, indexes)

	s := env.Data.Summary
	require.Equal(t, 5, s.Total)
	require.Equal(t, 3, s.Succeeded)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 1, s.Dropped)
}

func TestBatch_PartialNoErrors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/batch?mode=partial&tasks=3&sleep=0")

	env := decode[batchData](t, rec)
	require.True(t, env.OK())
	require.Len(t, env.Data.Values, 3)
	require.Empty(t, env.Data.Errors)
}

func TestBatch_Timeout(t *testing.T) {
	srv := newTestServer(t, testConfig())

	start := time.Now()
	rec := get(t, srv, "/v1/batch?mode=partial&tasks=3&sleep=1&slow=1&timeout=100ms")
	require.Less(t, time.Since(start), 2*time.Second)

	env := decode[batchData](t, rec)
	require.True(t, env.OK(), "a cancelled slow task is skipped, not reported")
	require.Len(t, env.Data.Values, 2)
	require.Equal(t, 1, env.Data.Summary.Dropped)
}

func TestBatch_BadRequest(t *testing.T) {
	srv := newTestServer(t, testConfig())

	for _, target := range []string{
		"/v1/batch?tasks=abc",
		"/v1/batch?mode=bogus",
		"/v1/batch?tasks=2&fail=9",
		"/v1/batch?timeout=soon",
		"/v1/batch?tasks=-1",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv, target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, codeBadRequest, decode[any](t, rec).Code)
		})
	}
}

func TestBatch_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxConcurrentBatches = 1
	srv := newTestServer(t, cfg)

	require.True(t, srv.batches.TryAcquire(1))
	defer srv.batches.Release(1)

	rec := get(t, srv, "/v1/batch?tasks=1")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, codeBusy, decode[any](t, rec).Code)
}

func TestShared(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/shared?sleep=1")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[sharedData](t, rec)
	require.True(t, env.OK())
	require.True(t, strings.HasPrefix(env.Data.Worker, "shared-"), "unexpected worker %q", env.Data.Worker)
}

func TestShared_BadSleep(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/v1/shared?sleep=-5")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShared_AfterClose(t *testing.T) {
	srv := newTestServer(t, testConfig())
	srv.closeShared()

	rec := get(t, srv, "/v1/shared")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, codeUnavailable, decode[any](t, rec).Code)
}

func TestDurationParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: time.Second},
		{raw: "250", want: 250 * time.Millisecond},
		{raw: "1.5s", want: 1500 * time.Millisecond},
		{raw: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := durationParam(tt.raw, time.Second)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
