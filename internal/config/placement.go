package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const DefaultPlacementTimeout = 10 * time.Second

// Placement tells the game server where mine layouts come from. An empty
// URL means layouts are generated in-process.
type Placement struct {
	URL     string
	Timeout time.Duration
}

func (p Placement) Remote() bool {
	return p.URL != ""
}

func NewPlacement() (*Placement, error) {
	p := &Placement{Timeout: DefaultPlacementTimeout}

	if rawURL, ok := os.LookupEnv("PLACEMENT_URL"); ok && rawURL != "" {
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return nil, fmt.Errorf("invalid PLACEMENT_URL: %w", err)
		}
		p.URL = rawURL
	}

	if timeoutStr, ok := os.LookupEnv("PLACEMENT_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse PLACEMENT_TIMEOUT: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("PLACEMENT_TIMEOUT must be positive, got %s", timeout)
		}
		p.Timeout = timeout
	}

	return p, nil
}
