package configutil

import "testing"

type sampleSettings struct {
	APIKey     string `mapstructure:"api_key"`
	SampleRate int    `mapstructure:"sample_rate"`
	Interim    *bool  `mapstructure:"interim"`
}

func TestDecodeSettingsNormalizesKeys(t *testing.T) {
	var out sampleSettings
	err := DecodeSettings(map[string]any{
		"API-Key":     "k",
		"sample_rate": "16000",
		"interim":     true,
	}, &out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.APIKey != "k" {
		t.Fatalf("key not matched, got %+v", out)
	}
	if out.SampleRate != 16000 {
		t.Fatalf("weak typing not applied, got %d", out.SampleRate)
	}
	if out.Interim == nil || !*out.Interim {
		t.Fatalf("pointer bool not decoded, got %+v", out.Interim)
	}
}

func TestDecodeSettingsEmptyInput(t *testing.T) {
	var out sampleSettings
	if err := DecodeSettings(nil, &out); err != nil {
		t.Fatalf("nil input must be a no-op: %v", err)
	}
}

func TestValidateSettings(t *testing.T) {
	schema := Schema{
		Required: []string{"api_key"},
		Optional: []string{"sample_rate"},
	}
	if err := ValidateSettings(map[string]any{"api_key": "k", "sample_rate": 8000}, schema); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	if err := ValidateSettings(map[string]any{"sample_rate": 8000}, schema); err == nil {
		t.Fatal("missing required key must fail")
	}
	if err := ValidateSettings(map[string]any{"api_key": "k", "typo_key": 1}, schema); err == nil {
		t.Fatal("unknown key must fail")
	}
	if err := ValidateSettings(map[string]any{"api_key": "  "}, schema); err == nil {
		t.Fatal("blank required value must fail")
	}
}

func TestValueHelpers(t *testing.T) {
	if got := IntValue(nil, 7); got != 7 {
		t.Fatalf("expected fallback, got %d", got)
	}
	n := 3
	if got := IntValue(&n, 7); got != 3 {
		t.Fatalf("expected value, got %d", got)
	}
	if got := BoolValue(nil, true); !got {
		t.Fatal("expected fallback true")
	}
	if err := RequireString("", "some.path"); err == nil {
		t.Fatal("empty required string must fail")
	}
}
