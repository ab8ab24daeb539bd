package configs

import "time"

// Redis holds configuration for the campaign store connection. The
// operation timeouts are kept short on purpose: store calls sit on the
// bidding hot path and must fit inside the per-request latency budget.
type Redis struct {
	// Addr is the host:port of the Redis server.
	Addr string `env:"ADDR" envDefault:"localhost:6379"`
	// Password is the optional AUTH password.
	Password string `env:"PASSWORD" envDefault:""`
	// DB selects the logical database.
	DB int `env:"DB" envDefault:"0"`
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	// OpTimeout bounds individual read and write commands.
	OpTimeout time.Duration `env:"OP_TIMEOUT" envDefault:"50ms"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `env:"POOL_SIZE" envDefault:"64"`
	// SeedDemo loads demo campaigns into the store on startup. Only
	// honoured by main; meant for local development.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}
