package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	file := writeSecret(t, "  from-file \n")
	envFile := writeSecret(t, "from-env\n")
	empty := writeSecret(t, "  \n")
	t.Setenv("JOB_MATCHER_TEST_KEY_FILE", envFile)

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "inline", src: Source{Value: " inline "}, want: "inline"},
		{name: "file wins over value", src: Source{Value: "inline", File: file}, want: "from-file"},
		{name: "env file", src: Source{Env: "JOB_MATCHER_TEST_KEY_FILE"}, want: "from-env"},
		{name: "explicit file wins over env", src: Source{File: file, Env: "JOB_MATCHER_TEST_KEY_FILE"}, want: "from-file"},
		{name: "unset env falls back to value", src: Source{Value: "inline", Env: "JOB_MATCHER_TEST_UNSET"}, want: "inline"},
		{name: "empty file", src: Source{Name: "api key", File: empty}, wantErr: "api key file"},
		{name: "missing file", src: Source{File: filepath.Join(t.TempDir(), "nope")}, wantErr: "reading secret"},
		{name: "nothing configured", src: Source{Name: "geocoder key"}, wantErr: "geocoder key is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
