package caseloader

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/xerrors"
)

var (
	// ErrSourceUnreadable is returned when the source file cannot be opened.
	ErrSourceUnreadable = errors.New("source file is unreadable")

	// ErrInvalidConfig is returned for missing or malformed settings.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedStore is returned when the store URL scheme is unknown.
	ErrUnsupportedStore = errors.New("unsupported store")
)

// Loader reads an ITA case export and inserts it into a table chunk by chunk.
type Loader struct {
	cfg Config

	logLevel      string
	prettyLogging bool
	logWriter     io.Writer
	logger        zerolog.Logger

	concurrency int
	encoding    encoding.Encoding
	parser      Parser

	extractor extractor
	store     Store
	notifier  Notifier

	sleep func(context.Context, time.Duration)
}

// Summary describes a finished run.
type Summary struct {
	RunID  string
	Source string
	Table  string

	Rows        int
	Chunks      int
	Inserted    int
	Failed      int
	FieldErrors int

	Results  []Result
	Duration time.Duration

	// Err is set when the run stopped before uploading.
	Err error
}

// New builds a Loader from cfg. Unless WithStore is given, the store is opened from cfg.StoreURL.
func New(ctx context.Context, cfg Config, opts ...Option) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{
		cfg:         cfg,
		logLevel:    cfg.LogLevel,
		logWriter:   os.Stdout,
		concurrency: 1,
		encoding:    charmap.ISO8859_1,
		extractor:   newDefaultExtractor(),
		sleep:       sleepContext,
	}

	for _, o := range opts {
		if err := o.apply(l); err != nil {
			return nil, err
		}
	}

	if err := l.setupLogger(); err != nil {
		return nil, err
	}

	if l.notifier == nil && cfg.SlackToken != "" && cfg.SlackChannel != "" {
		l.notifier = &SlackNotifier{Token: cfg.SlackToken, Channel: cfg.SlackChannel}
	}

	if l.store == nil {
		if err := cfg.validateStore(); err != nil {
			return nil, err
		}

		s, err := OpenStore(l.logger.WithContext(ctx), cfg)
		if err != nil {
			return nil, xerrors.Errorf("failed to open store: %w", err)
		}
		l.store = s
	}

	return l, nil
}

func (l *Loader) setupLogger() error {
	level := zerolog.InfoLevel
	if l.logLevel != "" {
		lv, err := zerolog.ParseLevel(l.logLevel)
		if err != nil {
			return xerrors.Errorf("log level %q (%v): %w", l.logLevel, err, ErrInvalidConfig)
		}
		level = lv
	}

	w := l.logWriter
	if l.prettyLogging {
		w = zerolog.ConsoleWriter{Out: w}
	}

	l.logger = zerolog.New(w).Level(level).With().Timestamp().Logger()

	return nil
}

// Close releases the store.
func (l *Loader) Close() error {
	return l.store.Close()
}

// Run loads the configured source file.
func (l *Loader) Run(ctx context.Context) (*Summary, error) {
	return l.runWith(ctx, l.logger, l.cfg.SourceFile)
}

// runWith drives load, normalize, split and upload for one source.
// Only failures before the first upload are returned as errors.
func (l *Loader) runWith(ctx context.Context, base zerolog.Logger, path string) (*Summary, error) {
	runID := uuid.NewString()
	logger := base.With().Str("run_id", runID).Str("table", l.cfg.Table).Logger()
	ctx = withRun(logger.WithContext(ctx), runID)

	s := &Summary{RunID: runID, Source: path, Table: l.cfg.Table}
	logger.Info().Str("source", path).Msg("loader started")

	err := l.runStages(ctx, path, s)
	if r, ok := runFrom(ctx); ok {
		s.Duration = time.Since(r.started)
	}

	if err != nil {
		s.Err = err
		logger.Error().Err(err).Msg("loader aborted")
	} else {
		logger.Info().
			Int("rows", s.Rows).
			Int("inserted_chunks", s.Inserted).
			Int("failed_chunks", s.Failed).
			Dur("duration", s.Duration).
			Msg("loader finished")
	}

	l.notify(ctx, s)

	return s, err
}

func (l *Loader) runStages(ctx context.Context, path string, s *Summary) error {
	rs, err := l.Load(ctx, path)
	if err != nil {
		return xerrors.Errorf("failed to load: %w", err)
	}
	s.Rows = rs.Len()

	rs, report, err := normalize(ctx, rs, l.concurrency)
	if err != nil {
		return err
	}

	s.FieldErrors = len(report.FieldErrors)
	for _, fe := range report.FieldErrors {
		log.Ctx(ctx).Debug().Int("row", fe.Row).Str("column", fe.Column).Str("value", fe.Value).Err(fe.Err).Msg("value set to null")
	}
	if s.FieldErrors > 0 {
		log.Ctx(ctx).Warn().Int("count", s.FieldErrors).Msg("some values could not be normalized")
	}

	chunks, err := Split(rs, l.cfg.BatchSize)
	if err != nil {
		return err
	}
	s.Chunks = len(chunks)
	s.Results = l.uploadAll(ctx, chunks)

	for _, r := range s.Results {
		if r.Err != nil {
			s.Failed++
		} else {
			s.Inserted++
		}
	}

	return nil
}

func (l *Loader) notify(ctx context.Context, s *Summary) {
	if l.notifier == nil {
		return
	}

	if err := l.notifier.Notify(ctx, s); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to notify")
	}
}
