package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:    time.Now,
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRun_NoArgs(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv()
	if code := run(nil, env); code != ExitUsage {
		t.Errorf("run() = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "Usage: livetex") {
		t.Error("missing usage message")
	}
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv()
	if code := run([]string{"version"}, env); code != ExitSuccess {
		t.Errorf("run() = %d, want %d", code, ExitSuccess)
	}
	if !strings.Contains(stdout.String(), "livetex") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv()
	if code := run([]string{"frobnicate"}, env); code != ExitUsage {
		t.Errorf("run() = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "Unknown command: frobnicate") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bare help", []string{"help"}, "Usage: livetex <command>"},
		{"help convert", []string{"help", "convert"}, "Usage: livetex convert"},
		{"help serve", []string{"help", "serve"}, "Usage: livetex serve"},
		{"help version", []string{"help", "version"}, "Usage: livetex version"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, _ := testEnv()
			if code := run(tt.args, env); code != ExitSuccess {
				t.Errorf("run() = %d, want %d", code, ExitSuccess)
			}
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("stdout = %q, want substring %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestRun_ConvertWithoutInput(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv()
	if code := run([]string{"convert", "--html-only"}, env); code != ExitIO {
		t.Errorf("run() = %d, want %d", code, ExitIO)
	}
	if !strings.Contains(stderr.String(), "no input") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"long flag", []string{"convert", "--verbose", "a.tex"}, true},
		{"short flag", []string{"convert", "-v"}, true},
		{"absent", []string{"convert", "a.tex"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := hasVerboseFlag(tt.args); got != tt.want {
				t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
