package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PILOT_START_URL", "PILOT_ALLOWED_DOMAINS", "PILOT_CONFIRMATION_KEYWORDS",
		"PILOT_HEADLESS", "PILOT_VIEWPORT_WIDTH", "PILOT_VIEWPORT_HEIGHT",
		"PILOT_LLM_API_KEY", "PILOT_LLM_BASE_URL", "PILOT_LLM_MODEL",
		"PILOT_PORT", "PILOT_DB_PATH", "PILOT_ARTIFACTS_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnvRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	if _, err := loadFromEnv(); err == nil {
		t.Fatal("loadFromEnv() with no API key = nil error, want error")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PILOT_LLM_API_KEY", "sk-test")

	cfg, err := loadFromEnv()
	if err != nil {
		t.Fatalf("loadFromEnv() error = %v", err)
	}
	if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 720 {
		t.Errorf("viewport = %dx%d, want 1280x720", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true (default)")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if len(cfg.ConfirmationKeywords) == 0 {
		t.Error("ConfirmationKeywords is empty, want defaults")
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a.com", []string{"a.com"}},
		{"a.com, b.com ,c.com", []string{"a.com", "b.com", "c.com"}},
	}
	for _, tc := range cases {
		got := splitCSV(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("splitCSV(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitCSV(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
