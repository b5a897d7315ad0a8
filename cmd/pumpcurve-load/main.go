// Command pumpcurve-load drives a running pump curve service with generated
// operating point queries and verifies every response.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/pumpcurve/internal/loadtest"
	"github.com/okian/pumpcurve/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := &loadtest.Config{}
	fs := flag.NewFlagSet("pumpcurve-load", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	fs.IntVar(&cfg.Queries, "queries", loadtest.DefaultQueries, "Number of queries to generate and submit")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent submitters")
	fs.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "HTTP request timeout")
	fs.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Seed of the query generator")
	fs.StringVar(&cfg.OutputFile, "output", "", "Write the generated queries to this XLSX file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log every unexpected response")
	format := fs.String("log-format", logger.FormatText, "Log format: text or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	l, err := logger.New(stdout, *format)
	if err != nil {
		fmt.Fprintln(stderr, "pumpcurve-load:", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	if _, err := loadtest.Run(ctx, cfg, l); err != nil {
		fmt.Fprintln(stderr, "pumpcurve-load:", err)
		if errors.Is(err, loadtest.ErrMismatch) {
			return 3
		}
		return 1
	}
	return 0
}
