package caseloader

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/xerrors"
)

// Option configures Loader.
type Option interface {
	apply(*Loader) error
}

type optionFunc func(*Loader) error

func (f optionFunc) apply(l *Loader) error {
	return f(l)
}

// WithPrettyLogging configures Loader to print human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(l *Loader) error {
		l.prettyLogging = true
		return nil
	})
}

// WithLogLevel overrides Config.LogLevel.
func WithLogLevel(level string) Option {
	return optionFunc(func(l *Loader) error {
		l.logLevel = level
		return nil
	})
}

// WithLogWriter sends logs to w instead of stdout.
func WithLogWriter(w io.Writer) Option {
	return optionFunc(func(l *Loader) error {
		l.logWriter = w
		return nil
	})
}

// WithConcurrency sets how many goroutines normalize records.
// Uploads stay sequential regardless of this value.
func WithConcurrency(n int) Option {
	return optionFunc(func(l *Loader) error {
		if n < 1 {
			return xerrors.Errorf("concurrency must be positive, got %d: %w", n, ErrInvalidConfig)
		}
		l.concurrency = n
		return nil
	})
}

// WithEncoding sets the character encoding of text sources.
// Pass nil for sources that are already UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return optionFunc(func(l *Loader) error {
		l.encoding = enc
		return nil
	})
}

// WithParser forces a parser instead of choosing one by file extension.
func WithParser(p Parser) Option {
	return optionFunc(func(l *Loader) error {
		l.parser = p
		return nil
	})
}

// WithStore uses s instead of opening a store from Config.StoreURL.
func WithStore(s Store) Option {
	return optionFunc(func(l *Loader) error {
		l.store = s
		return nil
	})
}

// WithNotifier reports every run summary to n.
func WithNotifier(n Notifier) Option {
	return optionFunc(func(l *Loader) error {
		l.notifier = n
		return nil
	})
}
