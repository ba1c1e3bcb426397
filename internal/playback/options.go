package playback

import (
	"time"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// BatchSize is the number of pages requested per fetch
const BatchSize = 3

// Options tune the controller
type Options struct {
	BatchSize    int
	FetchTimeout time.Duration
	AutoAdvance  bool // continue with the next page when one finishes
	DefaultRate  domain.Rate
}

// DefaultOptions returns the standard controller settings
func DefaultOptions() Options {
	return Options{
		BatchSize:    BatchSize,
		FetchTimeout: 60 * time.Second,
		AutoAdvance:  true,
		DefaultRate:  domain.DefaultRate,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = def.BatchSize
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = def.FetchTimeout
	}
	if _, err := domain.ParseRate(float64(o.DefaultRate)); err != nil {
		o.DefaultRate = def.DefaultRate
	}
	return o
}
