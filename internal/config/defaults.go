package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":8087"
	defaultLeverage        = 10.0
	defaultProfile         = "plain"
	defaultPolicy          = "time_gap"
	defaultGapSeconds      = 300
	defaultSplitOnSideFlip = true
	defaultStoreDSN        = "file::memory:?cache=shared"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Analysis.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (a *AnalysisConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("analysis.default_profile", &a.DefaultProfile, defaultProfile),
		stringFieldDefault("analysis.default_policy", &a.DefaultPolicy, defaultPolicy),
		boolFieldDefault("analysis.split_on_side_flip", &a.SplitOnSideFlip, defaultSplitOnSideFlip),
	)
	if a.DefaultLeverage == 0 && !keys.isSet("analysis.default_leverage") {
		a.DefaultLeverage = defaultLeverage
	}
	if a.GapSeconds == 0 && !keys.isSet("analysis.gap_seconds") {
		a.GapSeconds = defaultGapSeconds
	}
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.dsn", &s.DSN, defaultStoreDSN),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
