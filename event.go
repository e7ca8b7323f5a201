package caseloader

import (
	"context"
	"fmt"

	"cloud.google.com/go/functions/metadata"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Event is a finalize event from Cloud Storage.
type Event struct {
	Name   string `json:"name"`
	Bucket string `json:"bucket"`
}

// FullPath returns full path of storage object beginning with gs://.
func (e *Event) FullPath() string {
	return fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name)
}

// HandleEvent loads the object named by e. It is meant to back a
// Cloud Storage triggered Cloud Function.
func (l *Loader) HandleEvent(ctx context.Context, e Event) error {
	if e.Bucket == "" || e.Name == "" {
		return xerrors.Errorf("event without bucket or name: %w", ErrSourceUnreadable)
	}

	logger := l.logger
	if m, err := metadata.FromContext(ctx); err == nil {
		logger = logger.With().Str("event_id", m.EventID).Time("event_time", m.Timestamp).Logger()
	}
	ctx = logger.WithContext(ctx)

	zerolog.Ctx(ctx).Info().Str("object", e.FullPath()).Msg("event received")

	s, err := l.runWith(ctx, logger, e.FullPath())
	if err != nil {
		return err
	}

	if s.Failed > 0 {
		zerolog.Ctx(ctx).Warn().Int("failed_chunks", s.Failed).Msg("some chunks were not inserted")
	}

	return nil
}
