package egg

import "testing"

func TestVersionCompareStrictSemver(t *testing.T) {
	tests := []struct {
		name     string
		v1, v2   string
		expected int
	}{
		{"equal", "1.0.0", "1.0.0", 0},
		{"greater", "1.2.3", "1.2.2", 1},
		{"lesser", "1.2.2", "1.2.3", -1},
		{"stable beats alpha", "1.0.0", "1.0.0-alpha", 1},
		{"stable beats beta", "1.0.0", "1.0.0-beta", 1},
		{"stable beats rc", "1.0.0", "1.0.0-rc.1", 1},
		{"alpha lt stable", "1.0.0-alpha", "1.0.0", -1},
		{"alpha lt beta", "1.0.0-alpha", "1.0.0-beta", -1},
		{"beta lt rc", "1.0.0-beta", "1.0.0-rc", -1},
		{"rc.1 lt rc.2", "1.0.0-rc.1", "1.0.0-rc.2", -1},
		{"v prefix equal", "v1.0.0", "1.0.0", 0},
		{"v prefix stable beats alpha", "v1.0.0", "v1.0.0-alpha", 1},
		{"build metadata ignored", "1.0.0+build.123", "1.0.0+build.456", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVersion(tt.v1).Compare(ParseVersion(tt.v2))
			if got != tt.expected {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}

func TestVersionCompareFallback(t *testing.T) {
	tests := []struct {
		name     string
		v1, v2   string
		expected int
	}{
		{"calver greater", "2024.06.30", "2024.01.15", 1},
		{"calver lesser", "2023.12.01", "2024.01.15", -1},
		{"go prefix comparison", "go1.21.5", "go1.20.1", 1},
		{"go prefix normalized equal", "go1.21.0", "1.21.0", 0},
		{"Release_ format", "Release_1_15_0", "Release_1_14_0", 1},
		{"kustomize-style tag", "kustomize/v5.7.1", "kustomize/v5.6.0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVersion(tt.v1).Compare(ParseVersion(tt.v2))
			if got != tt.expected {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}

// Non-parseable versions compare equal to themselves only.
func TestVersionNonParseableComparesEqualToItself(t *testing.T) {
	v := ParseVersion("not a version!! ??")
	if c := v.Compare(v); c != 0 {
		t.Errorf("Compare(v, v) = %d, want 0 for identical raw strings", c)
	}

	other := ParseVersion("also not a version")
	if c := v.Compare(other); c == 0 {
		t.Errorf("Compare(%q, %q) = 0, want nonzero for distinct non-parseable strings", v, other)
	}
}

func TestVersionStringReturnsRaw(t *testing.T) {
	tests := []string{"1.2.3", "2024.01.15", "not-a-version"}
	for _, s := range tests {
		if got := ParseVersion(s).String(); got != s {
			t.Errorf("ParseVersion(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestSplitPrerelease(t *testing.T) {
	tests := []struct {
		version      string
		expectedCore string
		expectedPre  string
	}{
		{"1.0.0", "1.0.0", ""},
		{"1.0.0-rc.1", "1.0.0", "rc.1"},
		{"1.0.0+build.123", "1.0.0", ""},
		{"1.0.0-rc.1+build.123", "1.0.0", "rc.1"},
		{"1.0.0-alpha", "1.0.0", "alpha"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			core, pre := splitPrerelease(tt.version)
			if core != tt.expectedCore || pre != tt.expectedPre {
				t.Errorf("splitPrerelease(%q) = (%q, %q), want (%q, %q)",
					tt.version, core, pre, tt.expectedCore, tt.expectedPre)
			}
		})
	}
}
