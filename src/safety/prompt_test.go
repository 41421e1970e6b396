package safety_test

import (
	"bytes"
	"strings"
	"testing"

	"stack-backup/src/safety"
)

func TestConfirm(t *testing.T) {
	cases := []struct {
		name  string
		opts  safety.Options
		input string
		want  bool
	}{
		{"dry-run declines", safety.Options{DryRun: true}, "y\n", false},
		{"yes accepts", safety.Options{Yes: true}, "", true},
		{"force accepts", safety.Options{Force: true}, "", true},
		{"answer y", safety.Options{}, "y\n", true},
		{"answer yes", safety.Options{}, "YES\n", true},
		{"answer n", safety.Options{}, "n\n", false},
		{"empty answer declines", safety.Options{}, "\n", false},
		{"eof declines", safety.Options{}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := safety.Confirm(tc.opts, strings.NewReader(tc.input), &out, "Proceed?")
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if got != tc.want {
				t.Fatalf("confirm = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfirm_PromptsOnlyWhenInteractive(t *testing.T) {
	var out bytes.Buffer
	if _, err := safety.Confirm(safety.Options{Yes: true}, strings.NewReader(""), &out, "Proceed?"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("non-interactive confirm wrote a prompt: %q", out.String())
	}

	if _, err := safety.Confirm(safety.Options{}, strings.NewReader("n\n"), &out, "Proceed?"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !strings.Contains(out.String(), "[y/N]") {
		t.Fatalf("interactive confirm did not prompt: %q", out.String())
	}
}
