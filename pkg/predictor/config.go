package predictor

import (
	"time"

	"github.com/healthalyze/healthalyze_backend/config"
)

type Config struct {
	// BaseURL is the prediction service root, e.g. http://localhost:8000.
	BaseURL string
	// Path is appended to BaseURL, e.g. /api/predict.
	Path    string
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Path:    "/api/predict",
		Timeout: 10 * time.Second,
	}
}

// FromCentralConfig converts the predictor section of the central config.
func FromCentralConfig(c config.PredictorConfig) Config {
	cfg := DefaultConfig()
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.Path != "" {
		cfg.Path = c.Path
	}
	if c.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	return cfg
}
