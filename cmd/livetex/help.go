package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livetex <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Transpile LaTeX files to preview HTML (and PDF)")
	fmt.Fprintln(w, "  serve      Start the live preview server for a document")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'livetex help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livetex convert <file.tex> [more.tex ...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transpile LaTeX files to preview HTML and print them to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel PDF workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       PDF export timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --html-only           Write HTML only, skip PDF export")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --stride <n>          Line anchor stride (0 = config default)")
	fmt.Fprintln(w, "      --highlight <name>    Code highlight style")
	fmt.Fprintln(w, "      --title <s>           Page title (default: input file name)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show stage progress")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: livetex serve <file.tex> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve a live preview: the page at /, document updates and scroll")
	fmt.Fprintln(w, "synchronization over the WebSocket at /ws.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default from config)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --stride <n>          Line anchor stride (0 = config default)")
	fmt.Fprintln(w, "      --highlight <name>    Code highlight style")
	fmt.Fprintln(w, "      --title <s>           Page title (default: input file name)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show connection and transpile progress")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: livetex version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: livetex help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
