package bibip

import (
	"io"
	"log/slog"

	"github.com/arsendavydov/de-project-bibip/slot"
)

// options defines all configuration for the ledger.
type options struct {
	codec  slot.Codec
	logger *slog.Logger
}

// Option is a function that configures the ledger.
type Option func(*options)

// WithSlotSize sets the slot payload width in bytes for all three stores.
// Changing the width on an existing data directory makes its files
// unreadable; pick it once.
func WithSlotSize(size int) Option {
	return func(o *options) {
		o.codec = slot.NewCodec(size)
	}
}

// WithLogger sets the logger used by the ledger. The default discards all
// output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		codec:  slot.NewCodec(slot.DefaultSize),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
