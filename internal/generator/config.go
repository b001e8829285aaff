package generator

// Config drives the synthetic data generator.
type Config struct {
	NumProducts    int
	NumUsers       int
	ReferralChance float64
	Seed           int64
}

// DefaultConfig returns baseline settings for a demo environment.
func DefaultConfig() Config {
	return Config{
		NumProducts:    50,
		NumUsers:       200,
		ReferralChance: 0.6,
		Seed:           42,
	}
}
