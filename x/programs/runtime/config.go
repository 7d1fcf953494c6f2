package runtime

const (
	// DefaultComputeUnitLimit is the budget of an invocation that does not
	// request one.
	DefaultComputeUnitLimit = 200_000
	// MaxComputeUnitLimit is the largest budget an invocation may request.
	MaxComputeUnitLimit = 1_400_000
	// BaseInvokeCost is charged before the handler runs.
	BaseInvokeCost = 1_000

	DefaultMaxParallelism = 4
	DefaultBatchQueueSize = 64
)

type Config struct {
	ComputeUnitLimit    uint64 `yaml:"computeUnitLimit"`
	MaxComputeUnitLimit uint64 `yaml:"maxComputeUnitLimit"`
	BaseInvokeCost      uint64 `yaml:"baseInvokeCost"`
	MaxParallelism      int    `yaml:"maxParallelism"`
	BatchQueueSize      int    `yaml:"batchQueueSize"`
}

func DefaultConfig() *Config {
	return &Config{
		ComputeUnitLimit:    DefaultComputeUnitLimit,
		MaxComputeUnitLimit: MaxComputeUnitLimit,
		BaseInvokeCost:      BaseInvokeCost,
		MaxParallelism:      DefaultMaxParallelism,
		BatchQueueSize:      DefaultBatchQueueSize,
	}
}

func (c *Config) Verify() error {
	switch {
	case c.ComputeUnitLimit == 0:
		return ErrInvalidConfig
	case c.MaxComputeUnitLimit < c.ComputeUnitLimit:
		return ErrInvalidConfig
	case c.BaseInvokeCost > c.ComputeUnitLimit:
		return ErrInvalidConfig
	case c.MaxParallelism <= 0 || c.BatchQueueSize < 0:
		return ErrInvalidConfig
	}
	return nil
}
