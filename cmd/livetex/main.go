package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues.
	if hasVerboseFlag(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(run(os.Args[1:], DefaultEnv()))
}

// run dispatches to a subcommand and maps its error to an exit code.
func run(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	switch args[0] {
	case "convert":
		flags, files, err := parseConvertFlags(args[1:])
		if err != nil {
			return ExitUsage
		}
		if err := runConvert(ctx, files, flags, env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess

	case "serve":
		flags, files, err := parseServeFlags(args[1:])
		if err != nil {
			return ExitUsage
		}
		if err := runServe(ctx, files, flags, env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess

	case "version":
		fmt.Fprintf(env.Stdout, "livetex %s\n", Version)
		return ExitSuccess

	case "help":
		runHelp(args[1:], env)
		return ExitSuccess

	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// hasVerboseFlag peeks at the raw arguments before full parsing so the
// GOMAXPROCS log lines can honor --verbose.
func hasVerboseFlag(args []string) bool {
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
