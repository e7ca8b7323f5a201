package caseloader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

const gcsScheme = "gs://"

// extractor opens a source file such as a local path or a Cloud Storage object.
type extractor interface {
	extract(context.Context, string) (io.Reader, func(), error)
}

type defaultExtractor struct {
	file fileExtractor
	gcs  *gcsExtractor
}

func newDefaultExtractor() extractor {
	return &defaultExtractor{gcs: &gcsExtractor{}}
}

func (e *defaultExtractor) extract(ctx context.Context, path string) (io.Reader, func(), error) {
	if strings.HasPrefix(path, gcsScheme) {
		return e.gcs.extract(ctx, path)
	}

	return e.file.extract(ctx, path)
}

type fileExtractor struct{}

func (fileExtractor) extract(ctx context.Context, path string) (io.Reader, func(), error) {
	p, err := expandHome(path)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to expand %s: %w", path, err)
	}

	f, err := os.Open(p)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", p).Msg("failed to open source file")
		return nil, nil, xerrors.Errorf("failed to open %s (%v): %w", p, err, ErrSourceUnreadable)
	}

	return f, func() { f.Close() }, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// gcsExtractor builds its storage client on first use so that local runs
// never need Google credentials.
type gcsExtractor struct {
	once    sync.Once
	client  *storage.Client
	initErr error
}

func (e *gcsExtractor) extract(ctx context.Context, path string) (io.Reader, func(), error) {
	l := log.Ctx(ctx)

	bucket, object, err := splitGCSPath(path)
	if err != nil {
		return nil, nil, err
	}

	e.once.Do(func() {
		e.client, e.initErr = storage.NewClient(ctx)
	})
	if e.initErr != nil {
		return nil, nil, xerrors.Errorf("failed to build storage client: %w", e.initErr)
	}

	r, err := e.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		l.Error().Err(err).Str("path", path).Msg("failed to initialize object reader")
		return nil, nil, xerrors.Errorf("failed to get reader of %s (%v): %w", path, err, ErrSourceUnreadable)
	}
	l.Debug().Str("path", path).Int64("size", r.Attrs.Size).Msg("object reader opened")

	return r, func() { r.Close() }, nil
}

func splitGCSPath(path string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(path, gcsScheme)

	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", xerrors.Errorf("malformed object path %s: %w", path, ErrSourceUnreadable)
	}

	return rest[:i], rest[i+1:], nil
}
