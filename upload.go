package caseloader

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Result is the outcome of one chunk upload.
type Result struct {
	Chunk int
	Size  int
	Err   error
}

// Upload submits chunk as a single insert request.
// A failure is logged and returned in Result; it never stops the run.
func (l *Loader) Upload(ctx context.Context, chunk Chunk) Result {
	logger := log.Ctx(ctx).With().Int("chunk", chunk.Index+1).Int("chunks", chunk.Total).Int("size", chunk.Len()).Logger()

	res := Result{Chunk: chunk.Index, Size: chunk.Len()}

	if err := l.store.Insert(ctx, l.cfg.Table, chunk.Records); err != nil {
		res.Err = xerrors.Errorf("failed to insert chunk %d: %w", chunk.Index+1, err)
		logger.Error().Err(err).Msgf("chunk %d/%d failed", chunk.Index+1, chunk.Total)

		return res
	}

	logger.Info().Msgf("chunk %d/%d inserted", chunk.Index+1, chunk.Total)

	return res
}

// uploadAll uploads chunks one at a time in order, pausing after every attempt.
func (l *Loader) uploadAll(ctx context.Context, chunks []Chunk) []Result {
	results := make([]Result, 0, len(chunks))

	for _, c := range chunks {
		results = append(results, l.Upload(ctx, c))
		l.sleep(ctx, l.cfg.Throttle)
	}

	return results
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
