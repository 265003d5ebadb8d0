package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	livetex "github.com/livetex/go-livetex"
	"github.com/livetex/go-livetex/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadSource         = errors.New("failed to read source file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have a .tex, .latex, or .ltx extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputNotDirectory = errors.New("output must be a directory for multiple inputs")
)

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

// maxWorkers caps --workers; each worker owns a browser instance.
const maxWorkers = 32

// fileJob pairs one input with its resolved output paths.
type fileJob struct {
	inputPath string
	htmlPath  string
	pdfPath   string
}

// fileResult holds the outcome of one conversion.
type fileResult struct {
	job      fileJob
	err      error
	duration time.Duration
}

// runConvert transpiles each input to HTML and, unless --html-only, prints
// it to PDF through a pool of headless browsers.
func runConvert(ctx context.Context, args []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: livetex convert <file.tex> [more.tex ...]", ErrNoInput)
	}

	jobs, err := resolveJobs(args, flags.output)
	if err != nil {
		return err
	}

	var verbose io.Writer
	if flags.common.verbose {
		verbose = env.Stderr
	}
	tp := buildTranspiler(cfg, flags.stride, flags.highlight, "", verbose)

	if flags.htmlOnly {
		return convertSequential(ctx, jobs, tp, flags, env)
	}

	timeout, err := resolveExportTimeout(flags.timeout, cfg)
	if err != nil {
		return err
	}

	poolSize := livetex.ResolvePoolSize(flags.workers)
	if poolSize > len(jobs) {
		poolSize = len(jobs)
	}
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "export pool size: %d\n", poolSize)
	}

	pool := livetex.NewExporterPool(poolSize, livetex.WithExportTimeout(timeout))
	defer pool.Close()

	return convertParallel(ctx, jobs, tp, pool, flags, env)
}

// convertSequential handles --html-only: no browser, no pool.
func convertSequential(ctx context.Context, jobs []fileJob, tp *livetex.Transpiler, flags *convertFlags, env *Environment) error {
	var errs []error
	for _, job := range jobs {
		start := env.Now()
		err := convertOne(ctx, job, tp, nil, flags)
		report(env, flags, fileResult{job: job, err: err, duration: env.Now().Sub(start)})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.inputPath, err))
		}
	}
	return errors.Join(errs...)
}

// convertParallel fans jobs out over the exporter pool.
func convertParallel(ctx context.Context, jobs []fileJob, tp *livetex.Transpiler, pool *livetex.ExporterPool, flags *convertFlags, env *Environment) error {
	results := make(chan fileResult, len(jobs))
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(job fileJob) {
			defer wg.Done()
			exporter := pool.Acquire()
			defer pool.Release(exporter)

			start := env.Now()
			err := convertOne(ctx, job, tp, exporter, flags)
			results <- fileResult{job: job, err: err, duration: env.Now().Sub(start)}
		}(job)
	}

	wg.Wait()
	close(results)

	var errs []error
	for r := range results {
		report(env, flags, r)
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.job.inputPath, r.err))
		}
	}
	return errors.Join(errs...)
}

// convertOne reads, transpiles, and writes one document. A nil exporter
// skips the PDF.
func convertOne(ctx context.Context, job fileJob, tp *livetex.Transpiler, exporter *livetex.Exporter, flags *convertFlags) error {
	source, err := os.ReadFile(job.inputPath) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}

	title := flags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(job.inputPath), filepath.Ext(job.inputPath))
	}

	result, err := tp.Transpile(ctx, livetex.Input{
		Source:  string(source),
		BaseDir: filepath.Dir(job.inputPath),
		Title:   title,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(job.htmlPath, []byte(result.HTML), filePermissions); err != nil { // #nosec G306 -- world-readable output is intended
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	if exporter != nil {
		if err := exporter.ExportFile(ctx, result.HTML, job.pdfPath); err != nil {
			return err
		}
	}
	return nil
}

// resolveJobs validates inputs and derives output paths. A single input may
// target a file path; multiple inputs require a directory.
func resolveJobs(args []string, output string) ([]fileJob, error) {
	outputDir := ""
	singleTarget := ""
	switch {
	case output == "":
	case isDirectory(output) || len(args) > 1 || strings.HasSuffix(output, string(os.PathSeparator)):
		outputDir = output
	default:
		singleTarget = output
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, dirPermissions); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}

	jobs := make([]fileJob, 0, len(args))
	for _, input := range args {
		if err := validateInput(input); err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		var htmlPath string
		switch {
		case singleTarget != "":
			htmlPath = singleTarget
		case outputDir != "":
			htmlPath = filepath.Join(outputDir, base+".html")
		default:
			htmlPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
		}

		jobs = append(jobs, fileJob{
			inputPath: input,
			htmlPath:  htmlPath,
			pdfPath:   strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".pdf",
		})
	}
	return jobs, nil
}

func validateInput(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".tex" && ext != ".latex" && ext != ".ltx" {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	if !fileutil.FileExists(path) {
		return fmt.Errorf("%w: %s: %w", ErrReadSource, path, os.ErrNotExist)
	}
	return nil
}

func validateWorkers(workers int) error {
	if workers < 0 || workers > maxWorkers {
		return fmt.Errorf("%w: %d (want 0-%d, 0 = auto)", ErrInvalidWorkerCount, workers, maxWorkers)
	}
	return nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// report prints one per-file line unless --quiet.
func report(env *Environment, flags *convertFlags, r fileResult) {
	if flags.common.quiet {
		return
	}
	if r.err != nil {
		fmt.Fprintf(env.Stderr, "FAIL %s: %v\n", r.job.inputPath, r.err)
		return
	}
	target := r.job.htmlPath
	if !flags.htmlOnly {
		target = r.job.pdfPath
	}
	fmt.Fprintf(env.Stdout, "OK   %s -> %s (%s)\n", r.job.inputPath, target, r.duration.Round(time.Millisecond))
}
