package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	if err := SetLogLevel("WARN"); err != nil || Log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("want warn level, got %v (err %v)", Log.GetLevel(), err)
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	SetVerbose(true)
	if Log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("verbose should force debug, got %v", Log.GetLevel())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Aman Tokyo", 20, "Aman Tokyo"},
		{"Aman Tokyo", 5, "Aman…"},
		{"Aman", 1, "…"},
		{"Aman", 0, "Aman"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d): want %q, got %q", tt.in, tt.n, tt.want, got)
		}
	}
}
