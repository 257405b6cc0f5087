package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "en", true},
		{" EN ", "en", true},
		{"eng", "en", true},
		{"fre", "fr", true},
		{"ger", "de", true},
		{"English", "en", true},
		{"pt_BR", "pt-br", true},
		{"zh-CN", "zh-cn", true},
		{"chi-tw", "zh-tw", true},
		{"xy", "xy", true},
		{"xyz", "", false},
		{"klingon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":    "English",
		"fra":   "French",
		"pt-br": "Portuguese",
		"xy":    "XY",
		"":      "Unknown",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}
