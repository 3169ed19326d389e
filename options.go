package audiotag

import (
	"log/slog"

	"github.com/simonhull/audiotag/internal/types"
)

// Option configures behavior when reading tags.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3",
//	    audiotag.WithStrictParsing(),
//	    audiotag.WithMaxTagSize(1<<20),
//	)
type Option func(*openOptions)

// openOptions holds configuration for reading tags.
type openOptions struct {
	logger         *slog.Logger
	maxTagSize     int64
	strictParsing  bool // Return truncated/malformed structures as errors
	ignoreWarnings bool // Drop collected warnings
}

func defaultOptions() *openOptions {
	return &openOptions{maxTagSize: types.DefaultMaxTagSize}
}

func (o *openOptions) readOptions() *types.ReadOptions {
	ro := types.NewReadOptions()
	ro.Strict = o.strictParsing
	ro.MaxTagSize = o.maxTagSize
	if o.logger != nil {
		ro.Logger = o.logger
	}
	return ro
}

// WithStrictParsing turns truncated and malformed structures into errors.
//
// By default a damaged tag is skipped or partially decoded and the problem
// is recorded in File.Warnings. With strict parsing the first such problem
// is returned from Read or Open instead.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3", audiotag.WithStrictParsing())
//	if errors.Is(err, audiotag.ErrTruncated) {
//		// a tag claims more bytes than the file holds
//	}
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings discards the warnings collected while reading.
//
// Example:
//
//	file, err := audiotag.Open("song.mp3", audiotag.WithIgnoreWarnings())
//	// file.Warnings will always be empty
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}

// WithMaxTagSize caps the declared size of any tag, item or frame. Larger
// declarations are treated as malformed. The default is 16 MiB.
func WithMaxTagSize(bytes int64) Option {
	return func(o *openOptions) {
		if bytes > 0 {
			o.maxTagSize = bytes
		}
	}
}

// WithLogger sends debug records (warnings, rescans) to logger.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	file, err := audiotag.Open("song.mp3", audiotag.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}
