package configs

import "time"

// Engine tunes the decision pipeline.
type Engine struct {
	// CacheTTL is how long a campaign snapshot is served before a
	// request pays for a refresh.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	// PauseThreshold is the budget fraction at which a campaign is
	// treated as depleted. Just under 1.0 absorbs rounding on the last
	// impression.
	PauseThreshold float64 `env:"PAUSE_THRESHOLD" envDefault:"0.99"`
	// PauseQueueSize bounds the depletion worker's queue. Overflowing
	// signals are dropped and re-raised by later reservations.
	PauseQueueSize int `env:"PAUSE_QUEUE_SIZE" envDefault:"1024"`
}
