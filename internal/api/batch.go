package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/response"
	"github.com/aryankumar/batchexec/internal/util"
	"github.com/aryankumar/batchexec/internal/workload"
)

const (
	modeStrict  = "strict"
	modePartial = "partial"

	defaultBatchTasks = 8
	defaultBatchSleep = 10 * time.Millisecond
)

type batchData struct {
	Values  []*workload.Result `json:"values"`
	Errors  []string           `json:"errors,omitempty"`
	Summary executor.Summary   `json:"summary"`
}

type sharedData struct {
	Worker    string `json:"worker"`
	CostMs    int64  `json:"costMs"`
	CallerRun bool   `json:"callerRun"`
}

type batchRequest struct {
	mode string
	spec workload.Spec
	opts []executor.Option
}

// handleBatch fans synthetic sub-requests out through a dedicated pool.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseBatchRequest(r)
	if err != nil {
		s.writeFailed(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	if !s.batches.TryAcquire(1) {
		batchesRejectedTotal.Inc()
		s.writeFailed(w, http.StatusTooManyRequests, codeBusy, util.FriendlyError(util.ErrBusy))
		return
	}
	defer s.batches.Release(1)

	tasks := workload.Build(req.spec)
	ctx := r.Context()

	if req.mode == modeStrict {
		values, err := executor.Invoke(ctx, tasks, req.opts...)
		if err != nil {
			s.writeFailed(w, http.StatusOK, codeBatchFailed, err.Error())
			return
		}
		summary := executor.Summarize(len(tasks), &executor.BatchResult[*workload.Result]{Values: values})
		response.Write(w, http.StatusOK, response.Success(batchData{Values: values, Summary: summary}), s.logger)
		return
	}

	res := executor.InvokeCollect(ctx, tasks, req.opts...)
	data := batchData{
		Values:  res.Values,
		Errors:  errorStrings(res.Errors),
		Summary: executor.Summarize(len(tasks), res),
	}
	if !res.HasErrors() {
		response.Write(w, http.StatusOK, response.Success(data), s.logger)
		return
	}
	response.Write(w, http.StatusOK, response.Envelope[batchData]{
		Code:    codePartial,
		Message: fmt.Sprintf("%d of %d sub-requests failed", len(res.Errors), len(tasks)),
		Data:    data,
	}, s.logger)
}

func (s *Server) parseBatchRequest(r *http.Request) (batchRequest, error) {
	q := r.URL.Query()
	req := batchRequest{mode: modeStrict}

	if m := q.Get("mode"); m != "" {
		if m != modeStrict && m != modePartial {
			return req, fmt.Errorf("mode must be %s or %s, got %q", modeStrict, modePartial, m)
		}
		req.mode = m
	}

	tasks, err := intParam(q.Get("tasks"), defaultBatchTasks)
	if err != nil {
		return req, fmt.Errorf("tasks: %w", err)
	}
	sleep, err := durationParam(q.Get("sleep"), defaultBatchSleep)
	if err != nil {
		return req, fmt.Errorf("sleep: %w", err)
	}
	timeout, err := durationParam(q.Get("timeout"), s.cfg.Batch.Timeout)
	if err != nil {
		return req, fmt.Errorf("timeout: %w", err)
	}
	poolSize, err := intParam(q.Get("poolSize"), s.cfg.Batch.PoolSize)
	if err != nil {
		return req, fmt.Errorf("poolSize: %w", err)
	}

	req.spec = workload.Spec{Tasks: tasks, Sleep: sleep}
	if req.spec.Fail, err = workload.ParseIndexes(q.Get("fail")); err != nil {
		return req, fmt.Errorf("fail: %w", err)
	}
	if req.spec.Slow, err = workload.ParseIndexes(q.Get("slow")); err != nil {
		return req, fmt.Errorf("slow: %w", err)
	}
	if req.spec.Empty, err = workload.ParseIndexes(q.Get("empty")); err != nil {
		return req, fmt.Errorf("empty: %w", err)
	}
	if err := req.spec.Validate(); err != nil {
		return req, err
	}

	req.opts = []executor.Option{
		executor.WithPoolSize(poolSize),
		executor.WithTimeout(timeout),
		executor.WithNamePrefix(s.cfg.Batch.NamePrefix),
		executor.WithLogger(s.logger),
	}
	return req, nil
}

// handleShared runs one sub-request on the shared executor.
func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	sleep, err := durationParam(r.URL.Query().Get("sleep"), defaultBatchSleep)
	if err != nil || sleep < 0 {
		s.writeFailed(w, http.StatusBadRequest, codeBadRequest, "sleep must be a non-negative number of milliseconds")
		return
	}

	start := time.Now()
	task := workload.Build(workload.Spec{Tasks: 1, Sleep: sleep})[0]
	f := executor.Submit(s.shared, task)

	result, err := f.Wait(r.Context())
	if err != nil {
		if errors.Is(err, executor.ErrPoolShutdown) {
			s.writeFailed(w, http.StatusServiceUnavailable, codeUnavailable, util.FriendlyError(util.ErrShutdown))
			return
		}
		s.writeFailed(w, http.StatusInternalServerError, codeBatchFailed, err.Error())
		return
	}

	response.Write(w, http.StatusOK, response.Success(sharedData{
		Worker:    result.Worker,
		CostMs:    time.Since(start).Milliseconds(),
		CallerRun: result.Worker == "shared-caller",
	}), s.logger)
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// durationParam accepts a Go duration ("250ms") or a bare number of milliseconds
func durationParam(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}
