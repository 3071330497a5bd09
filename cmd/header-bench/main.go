// ABOUTME: Benchmark app comparing time source strategies against one host
// ABOUTME: Registers every strategy, polls them round-robin and prints a summary
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/headerclock/internal/benchmark"
	"github.com/harperreed/headerclock/internal/metrics"
	"github.com/harperreed/headerclock/internal/timesource"
	"github.com/harperreed/headerclock/internal/version"
)

var (
	host        = flag.String("host", "", "Remote host to benchmark against (required)")
	scheme      = flag.String("scheme", "https", "URL scheme: https or http")
	path        = flag.String("path", "/", "Real resource path used by the fresh-client strategy")
	missingPath = flag.String("missing-path", "/dummy", "Path expected to 404, used by the reusing strategies")
	timeout     = flag.Duration("timeout", 5*time.Second, "Per-fetch network timeout")
	iterations  = flag.Int("iterations", benchmark.DefaultIterations, "Rounds per strategy")
	warmup      = flag.Int("warmup", 0, "Unmeasured rounds before the benchmark")
	logFile     = flag.String("log-file", "", "Also append logs to this file")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	endpoint := timesource.Endpoint{
		Scheme:             *scheme,
		Host:               *host,
		Path:               *path,
		MissingPath:        *missingPath,
		Header:             timesource.DefaultHeader,
		Timeout:            *timeout,
		InsecureSkipVerify: true,
		UserAgent:          version.UserAgent(),
	}
	if err := endpoint.Validate(); err != nil {
		log.Fatalf("Invalid endpoint: %v", err)
	}

	registry := timesource.NewRegistry()
	for _, id := range timesource.Strategies {
		src, err := timesource.New(id, endpoint)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", id, err)
		}
		if c, ok := src.(io.Closer); ok {
			defer c.Close()
		}
		registry.Register(src)
	}

	runID := uuid.New()
	recorder := metrics.NewRecorder()
	runner := benchmark.NewRunner(registry, &timesource.Invoker{Observer: recorder})
	runner.Warmup = *warmup

	fmt.Printf("=== %s strategy benchmark (run %s) ===\n", version.Product, runID)
	fmt.Printf("Host: %s://%s, %d iterations, %d strategies\n\n", endpoint.Scheme, endpoint.Host, *iterations, registry.Len())

	report := runner.Compare(context.Background(), *iterations)
	report.Print(os.Stdout)

	if best, ok := report.Fastest(); ok {
		fmt.Printf("\nFastest: %s (avg %v per sample, %d/%d ok)\n", best.Strategy, best.SuccessMean(), best.Successes, best.Iterations)
	} else {
		fmt.Println("\nNo strategy produced a sample")
	}

	fmt.Println("\nOutcomes:")
	if err := recorder.WriteSummary(os.Stdout); err != nil {
		log.Printf("Metrics summary failed: %v", err)
	}
}
