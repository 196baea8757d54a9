package config

// Built-in defaults applied wherever neither the user file nor the
// environment set a value.
const (
	DefaultProbeTimeout  = "5s"
	DefaultMinConfidence = 0.6
	DefaultMinCoverage   = 0.2
	DefaultCacheTTL      = "168h"
	DefaultOutputFormat  = "json"
	DefaultColor         = "auto"
)

// mergeConfigs overlays the user configuration onto the base. Only
// values the user actually set win.
func mergeConfigs(base, user *Config) *Config {
	merged := copyConfig(base)

	if user.Probe != nil {
		probe := ensureProbe(merged)
		if user.Probe.Timeout != "" {
			probe.Timeout = user.Probe.Timeout
		}
		if user.Probe.Man != nil {
			probe.Man = boolPtr(*user.Probe.Man)
		}
		if user.Probe.ShellFallback != nil {
			probe.ShellFallback = boolPtr(*user.Probe.ShellFallback)
		}
		if user.Probe.Recurse != nil {
			probe.Recurse = boolPtr(*user.Probe.Recurse)
		}
	}

	if user.Policy != nil {
		policy := ensurePolicy(merged)
		if user.Policy.MinConfidence != nil {
			policy.MinConfidence = floatPtr(*user.Policy.MinConfidence)
		}
		if user.Policy.MinCoverage != nil {
			policy.MinCoverage = floatPtr(*user.Policy.MinCoverage)
		}
		if user.Policy.AllowLowQuality != nil {
			policy.AllowLowQuality = boolPtr(*user.Policy.AllowLowQuality)
		}
		if user.Policy.AcceptExpr != "" {
			policy.AcceptExpr = user.Policy.AcceptExpr
		}
	}

	if user.Cache != nil {
		cache := ensureCache(merged)
		if user.Cache.Enabled != nil {
			cache.Enabled = boolPtr(*user.Cache.Enabled)
		}
		if user.Cache.Dir != "" {
			cache.Dir = user.Cache.Dir
		}
		if user.Cache.TTL != "" {
			cache.TTL = user.Cache.TTL
		}
	}

	if user.Discover != nil {
		discover := ensureDiscover(merged)
		if len(user.Discover.Paths) > 0 {
			discover.Paths = append([]string(nil), user.Discover.Paths...)
		}
		if len(user.Discover.Exclude) > 0 {
			discover.Exclude = append([]string(nil), user.Discover.Exclude...)
		}
		if user.Discover.Jobs > 0 {
			discover.Jobs = user.Discover.Jobs
		}
		if user.Discover.InstalledOnly != nil {
			discover.InstalledOnly = boolPtr(*user.Discover.InstalledOnly)
		}
		if user.Discover.Limit > 0 {
			discover.Limit = user.Discover.Limit
		}
	}

	if user.Output != nil {
		output := ensureOutput(merged)
		if user.Output.Format != "" {
			output.Format = user.Output.Format
		}
		if user.Output.Color != "" {
			output.Color = user.Output.Color
		}
	}

	return merged
}

// MergeDefaults applies built-in defaults to a config for any missing
// values.
func MergeDefaults(config *Config) {
	probe := ensureProbe(config)
	if probe.Timeout == "" {
		probe.Timeout = DefaultProbeTimeout
	}
	if probe.Man == nil {
		probe.Man = boolPtr(true)
	}
	if probe.ShellFallback == nil {
		probe.ShellFallback = boolPtr(true)
	}
	if probe.Recurse == nil {
		probe.Recurse = boolPtr(true)
	}

	policy := ensurePolicy(config)
	if policy.MinConfidence == nil {
		policy.MinConfidence = floatPtr(DefaultMinConfidence)
	}
	if policy.MinCoverage == nil {
		policy.MinCoverage = floatPtr(DefaultMinCoverage)
	}
	if policy.AllowLowQuality == nil {
		policy.AllowLowQuality = boolPtr(false)
	}

	cache := ensureCache(config)
	if cache.Enabled == nil {
		cache.Enabled = boolPtr(true)
	}
	if cache.TTL == "" {
		cache.TTL = DefaultCacheTTL
	}

	discover := ensureDiscover(config)
	if discover.InstalledOnly == nil {
		discover.InstalledOnly = boolPtr(true)
	}

	output := ensureOutput(config)
	if output.Format == "" {
		output.Format = DefaultOutputFormat
	}
	if output.Color == "" {
		output.Color = DefaultColor
	}
}

// copyConfig creates a deep copy of a Config.
func copyConfig(src *Config) *Config {
	if src == nil {
		return nil
	}

	dst := &Config{}

	if src.Probe != nil {
		probe := *src.Probe
		if src.Probe.Man != nil {
			probe.Man = boolPtr(*src.Probe.Man)
		}
		if src.Probe.ShellFallback != nil {
			probe.ShellFallback = boolPtr(*src.Probe.ShellFallback)
		}
		if src.Probe.Recurse != nil {
			probe.Recurse = boolPtr(*src.Probe.Recurse)
		}
		dst.Probe = &probe
	}

	if src.Policy != nil {
		policy := *src.Policy
		if src.Policy.MinConfidence != nil {
			policy.MinConfidence = floatPtr(*src.Policy.MinConfidence)
		}
		if src.Policy.MinCoverage != nil {
			policy.MinCoverage = floatPtr(*src.Policy.MinCoverage)
		}
		if src.Policy.AllowLowQuality != nil {
			policy.AllowLowQuality = boolPtr(*src.Policy.AllowLowQuality)
		}
		dst.Policy = &policy
	}

	if src.Cache != nil {
		cache := *src.Cache
		if src.Cache.Enabled != nil {
			cache.Enabled = boolPtr(*src.Cache.Enabled)
		}
		dst.Cache = &cache
	}

	if src.Discover != nil {
		discover := *src.Discover
		discover.Paths = append([]string(nil), src.Discover.Paths...)
		discover.Exclude = append([]string(nil), src.Discover.Exclude...)
		if src.Discover.InstalledOnly != nil {
			discover.InstalledOnly = boolPtr(*src.Discover.InstalledOnly)
		}
		dst.Discover = &discover
	}

	if src.Output != nil {
		output := *src.Output
		dst.Output = &output
	}

	return dst
}
