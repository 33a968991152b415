package config

import (
	"strings"
	"testing"
)

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short fully masked", "12345678", maskedValue},
		{"long partially masked", "my_long_secret_key_123", "my<" + maskedValue + ">23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := maskSecret(tt.input); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigString_MasksPassword(t *testing.T) {
	t.Parallel()

	cfg := validBaseConfig()
	cfg.PostgresPassword = "super_secret_password"

	s := cfg.String()
	if strings.Contains(s, "super_secret_password") {
		t.Errorf("String() leaked the password: %s", s)
	}
	if !strings.Contains(s, maskedValue) {
		t.Errorf("String() should contain the mask: %s", s)
	}
}

func TestListenAddr(t *testing.T) {
	t.Parallel()

	cfg := &Config{ServerHost: "0.0.0.0", ServerPort: 8080}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8080" {
		t.Errorf("ListenAddr() = %q", got)
	}
}
