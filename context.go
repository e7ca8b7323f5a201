package caseloader

import (
	"context"
	"time"
)

type contextKey string

const (
	runKey contextKey = "run"
)

type runInfo struct {
	id      string
	started time.Time
}

func withRun(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runKey, runInfo{id: id, started: time.Now()})
}

func runFrom(ctx context.Context) (runInfo, bool) {
	r, ok := ctx.Value(runKey).(runInfo)
	return r, ok
}
