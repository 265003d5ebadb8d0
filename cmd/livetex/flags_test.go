package main

import "testing"

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	flags, args, err := parseConvertFlags([]string{
		"-o", "out", "-w", "4", "--html-only", "--stride", "5", "a.tex", "b.tex",
	})
	if err != nil {
		t.Fatal(err)
	}
	if flags.output != "out" || flags.workers != 4 || !flags.htmlOnly || flags.stride != 5 {
		t.Errorf("flags = %+v", flags)
	}
	if len(args) != 2 || args[0] != "a.tex" || args[1] != "b.tex" {
		t.Errorf("positional args = %v", args)
	}
}

func TestParseConvertFlags_Unknown(t *testing.T) {
	t.Parallel()

	if _, _, err := parseConvertFlags([]string{"--no-such-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseServeFlags(t *testing.T) {
	t.Parallel()

	flags, args, err := parseServeFlags([]string{"-a", "127.0.0.1:9000", "-v", "doc.tex"})
	if err != nil {
		t.Fatal(err)
	}
	if flags.addr != "127.0.0.1:9000" || !flags.common.verbose {
		t.Errorf("flags = %+v", flags)
	}
	if len(args) != 1 || args[0] != "doc.tex" {
		t.Errorf("positional args = %v", args)
	}
}
