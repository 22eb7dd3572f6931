// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of a document accepted for decoding.
const DefaultMaxFileSize int64 = 4 << 20

type (
	decodeOptions struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}

	// Option configures decoding.
	Option func(*decodeOptions)
)

func newDecodeOptions(opts []Option) decodeOptions {
	o := decodeOptions{
		filename:    "<input>",
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFilename names the document in positions and error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) {
		if name != "" {
			o.filename = name
		}
	}
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) { o.maxFileSize = size }
}

// WithConcrete controls whether every field must be concrete after
// unification. It defaults to true; config files that rely on schema
// defaults for optional fields may turn it off.
func WithConcrete(concrete bool) Option {
	return func(o *decodeOptions) { o.concrete = concrete }
}
