package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	output    string
	workers   int
	timeout   string
	stride    int
	highlight string
	title     string
	htmlOnly  bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	stride    int
	highlight string
	title     string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show stage progress")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	f := &convertFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers for PDF export (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF export timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.stride, "stride", 0, "line anchor stride (0 = config default)")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style name")
	fs.StringVar(&f.title, "title", "", "page title (default: input file name)")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "write HTML only, skip PDF export")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	fs.IntVar(&f.stride, "stride", 0, "line anchor stride (0 = config default)")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style name")
	fs.StringVar(&f.title, "title", "", "page title (default: input file name)")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printServeUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
