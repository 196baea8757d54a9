package config

import "testing"

func TestMergeConfigsUserWins(t *testing.T) {
	base := &Config{
		Probe:  &ProbeConfig{Timeout: "5s", Man: boolPtr(true)},
		Policy: &PolicyConfig{MinConfidence: floatPtr(0.6)},
	}
	user := &Config{
		Probe:  &ProbeConfig{Timeout: "10s"},
		Policy: &PolicyConfig{MinConfidence: floatPtr(0.9), AcceptExpr: "success"},
	}

	merged := mergeConfigs(base, user)

	if merged.Probe.Timeout != "10s" {
		t.Errorf("expected user timeout to win, got %s", merged.Probe.Timeout)
	}
	if merged.Probe.Man == nil || !*merged.Probe.Man {
		t.Error("expected base man setting to survive")
	}
	if *merged.Policy.MinConfidence != 0.9 {
		t.Errorf("expected min_confidence 0.9, got %v", *merged.Policy.MinConfidence)
	}
	if merged.Policy.AcceptExpr != "success" {
		t.Errorf("expected accept_expr to carry over, got %q", merged.Policy.AcceptExpr)
	}
}

func TestMergeConfigsFalseOverride(t *testing.T) {
	base := &Config{Cache: &CacheConfig{Enabled: boolPtr(true)}}
	user := &Config{Cache: &CacheConfig{Enabled: boolPtr(false)}}

	merged := mergeConfigs(base, user)
	if *merged.Cache.Enabled {
		t.Error("expected explicit false to override true")
	}
}

func TestMergeConfigsDoesNotMutateBase(t *testing.T) {
	base := &Config{Probe: &ProbeConfig{Timeout: "5s"}}
	user := &Config{Probe: &ProbeConfig{Timeout: "1s"}}

	_ = mergeConfigs(base, user)
	if base.Probe.Timeout != "5s" {
		t.Errorf("base config mutated, timeout became %s", base.Probe.Timeout)
	}
}

func TestMergeConfigsSlicesCopied(t *testing.T) {
	user := &Config{Discover: &DiscoverConfig{Paths: []string{"/usr/bin"}}}

	merged := mergeConfigs(&Config{}, user)
	merged.Discover.Paths[0] = "/tmp"
	if user.Discover.Paths[0] != "/usr/bin" {
		t.Error("expected path slice to be copied, not aliased")
	}
}

func TestMergeDefaultsFillsEverything(t *testing.T) {
	config := &Config{}
	MergeDefaults(config)

	if config.Probe == nil || config.Probe.Timeout != DefaultProbeTimeout {
		t.Error("expected probe defaults")
	}
	if config.Policy == nil || *config.Policy.MinConfidence != DefaultMinConfidence {
		t.Error("expected policy defaults")
	}
	if config.Cache == nil || config.Cache.TTL != DefaultCacheTTL {
		t.Error("expected cache defaults")
	}
	if config.Discover == nil || config.Discover.InstalledOnly == nil || !*config.Discover.InstalledOnly {
		t.Error("expected installed_only default true")
	}
	if config.Output == nil || config.Output.Format != "json" || config.Output.Color != "auto" {
		t.Error("expected output defaults")
	}
}

func TestMergeDefaultsPreservesExisting(t *testing.T) {
	config := &Config{
		Probe:  &ProbeConfig{Timeout: "30s", Man: boolPtr(false)},
		Policy: &PolicyConfig{AllowLowQuality: boolPtr(true)},
	}
	MergeDefaults(config)

	if config.Probe.Timeout != "30s" {
		t.Errorf("expected timeout 30s preserved, got %s", config.Probe.Timeout)
	}
	if *config.Probe.Man {
		t.Error("expected man=false preserved")
	}
	if !*config.Policy.AllowLowQuality {
		t.Error("expected allow_low_quality=true preserved")
	}
	if *config.Policy.MinConfidence != DefaultMinConfidence {
		t.Error("expected min_confidence default filled in")
	}
}

func TestCopyConfigDeep(t *testing.T) {
	src := &Config{
		Probe:    &ProbeConfig{Man: boolPtr(true)},
		Discover: &DiscoverConfig{Exclude: []string{"git"}},
	}
	dst := copyConfig(src)

	*dst.Probe.Man = false
	dst.Discover.Exclude[0] = "tar"

	if !*src.Probe.Man {
		t.Error("expected bool pointer to be copied")
	}
	if src.Discover.Exclude[0] != "git" {
		t.Error("expected exclude slice to be copied")
	}
}
