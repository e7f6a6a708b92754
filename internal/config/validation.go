package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	if a.DefaultLeverage < 1 {
		return fmt.Errorf("analysis.default_leverage must be >= 1, got %g", a.DefaultLeverage)
	}
	if a.GapSeconds <= 0 {
		return fmt.Errorf("analysis.gap_seconds must be > 0, got %d", a.GapSeconds)
	}
	switch strings.TrimSpace(a.DefaultPolicy) {
	case "time_gap", "marker", "boundary":
	default:
		return fmt.Errorf("analysis.default_policy must be one of time_gap/marker/boundary, got %q", a.DefaultPolicy)
	}
	if strings.TrimSpace(a.DefaultProfile) == "" {
		return fmt.Errorf("analysis.default_profile cannot be empty")
	}
	return nil
}
