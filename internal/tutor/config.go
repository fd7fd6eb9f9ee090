package tutor

import "time"

// Config holds tutoring call settings.
type Config struct {
	MaxTokens     int
	Temperature   float64
	RatePerMinute int // per session, 0 disables limiting
	Burst         int
	CacheTTL      time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns defaults for tutoring calls.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     1024,
		Temperature:   0.4,
		RatePerMinute: 20,
		Burst:         5,
		CacheTTL:      24 * time.Hour,
		Timeout:       60 * time.Second,
	}
}
