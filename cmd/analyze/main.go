// Package main is a one-shot CLI that analyses one or more addresses and
// prints Markdown or JSON.
//
// Usage:
//
//	analyze --mode contract --chain ethereum 0xabc... 0xdef...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/registry"
	"contract-risk-lab/internal/reporting"
	"contract-risk-lab/internal/storage/memory"
)

// Modes and formats accepted on the command line.
const (
	modeContract     = "contract"
	modeQuick        = "quick"
	modeCreator      = "creator"
	modeInteractions = "interactions"

	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// config holds the parsed command line.
type config struct {
	mode        string
	chain       domain.Chain
	format      string
	concurrency int
	timeout     time.Duration
}

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", modeContract, "Analysis: contract, quick, creator, interactions")
	chainName := flag.String("chain", envOr("CHAIN", string(domain.ChainEthereum)), "Chain of the addresses")
	format := flag.String("format", formatMarkdown, "Output format: markdown, json")
	concurrency := flag.Int("concurrency", 2, "Addresses analysed in parallel")
	registryFile := flag.String("registry", os.Getenv("REGISTRY_FILE"), "Override file for the per-chain tables (YAML)")
	pacing := flag.Duration("pacing", chain.DefaultPacing, "Delay between explorer-backed calls")
	timeout := flag.Duration("timeout", 300*time.Second, "Timeout per address")
	verbose := flag.Bool("verbose", false, "Log analysis steps to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] ADDRESS...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

	cfg, err := parseConfig(*mode, *chainName, *format, *concurrency, *timeout)
	if err != nil {
		logger.Fatal(err)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.Default()
	if *registryFile != "" {
		if reg, err = registry.LoadFile(*registryFile); err != nil {
			logger.Fatalf("Failed to load registry: %v", err)
		}
	}

	endpoints := chain.EndpointsFromEnv(os.Getenv)
	if _, ok := endpoints[cfg.chain]; !ok {
		logger.Fatalf("%s_RPC_URL is not set", strings.ToUpper(string(cfg.chain)))
	}
	providers, err := chain.Dial(ctx, reg, map[domain.Chain]chain.Endpoint{cfg.chain: endpoints[cfg.chain]})
	if err != nil {
		logger.Fatalf("Failed to dial %s: %v", cfg.chain, err)
	}

	var svcLogger *log.Logger
	if *verbose {
		svcLogger = log.New(os.Stderr, "[analysis] ", log.LstdFlags)
	}
	svc := analysis.New(analysis.Options{
		Providers: providers,
		Registry:  reg,
		Pacer:     chain.NewPacer(*pacing),
		Stores:    analysis.Stores{Cache: memory.NewCache()},
		Logger:    svcLogger,
	})

	failed, err := run(ctx, svc, cfg, flag.Args(), os.Stdout)
	if err != nil {
		logger.Fatal(err)
	}
	for _, f := range failed {
		logger.Printf("%s: %v", f.address, f.err)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}

func parseConfig(mode, chainName, format string, concurrency int, timeout time.Duration) (config, error) {
	switch mode {
	case modeContract, modeQuick, modeCreator, modeInteractions:
	default:
		return config{}, fmt.Errorf("unknown --mode %q", mode)
	}
	switch format {
	case formatMarkdown, formatJSON:
	default:
		return config{}, fmt.Errorf("unknown --format %q", format)
	}
	c, err := domain.ParseChain(chainName)
	if err != nil {
		return config{}, err
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return config{mode: mode, chain: c, format: format, concurrency: concurrency, timeout: timeout}, nil
}

// failure is an address whose analysis failed.
type failure struct {
	address string
	err     error
}

// run analyses every address with bounded parallelism and writes the results
// in argument order. Per-address failures are returned, not fatal.
func run(ctx context.Context, svc *analysis.Service, cfg config, addresses []string, w io.Writer) ([]failure, error) {
	results := make([]any, len(addresses))
	errs := make([]error, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i, addr := range addresses {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, cfg.timeout)
			defer cancel()
			results[i], errs[i] = analyze(actx, svc, cfg, addr)
			return nil
		})
	}
	g.Wait()

	var failed []failure
	var ok []any
	for i, err := range errs {
		if err != nil {
			failed = append(failed, failure{address: addresses[i], err: err})
			continue
		}
		ok = append(ok, results[i])
	}

	if err := write(w, cfg.format, ok); err != nil {
		return failed, err
	}
	return failed, nil
}

func analyze(ctx context.Context, svc *analysis.Service, cfg config, addr string) (any, error) {
	switch cfg.mode {
	case modeQuick:
		return svc.QuickCheck(ctx, cfg.chain, addr)
	case modeCreator:
		return svc.TraceCreator(ctx, cfg.chain, addr, false)
	case modeInteractions:
		return svc.AnalyzeInteractions(ctx, cfg.chain, addr, false)
	default:
		return svc.AnalyzeContract(ctx, cfg.chain, addr, nil)
	}
}

func write(w io.Writer, format string, results []any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		if results == nil {
			results = []any{}
		}
		return enc.Encode(results)
	}

	for i, r := range results {
		if i > 0 {
			if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, render(r)); err != nil {
			return err
		}
	}
	return nil
}

func render(v any) string {
	switch r := v.(type) {
	case *domain.ContractAnalysis:
		return reporting.RenderContract(r)
	case *domain.QuickCheck:
		return reporting.RenderQuickCheck(r)
	case *domain.CreatorAnalysis:
		return reporting.RenderCreator(r)
	case *domain.InteractionAnalysis:
		return reporting.RenderInteraction(r)
	default:
		return fmt.Sprintf("%v\n", v)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
