package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/chain/stub"
	"contract-risk-lab/internal/domain"
)

const (
	tokenA = "0x00000000000000000000000000000000000000a1"
	tokenB = "0x00000000000000000000000000000000000000b2"
	empty  = "0x00000000000000000000000000000000000000f0"
)

func newService() *analysis.Service {
	p := stub.NewProvider()
	for i, addr := range []string{tokenA, tokenB} {
		p.AddContract(addr, []byte{0x60, 0x80}, "0x00000000000000000000000000000000000000d0", "0xcreate")
		symbol := []string{"AAA", "BBB"}[i]
		p.Tokens[addr] = &domain.TokenProfile{Symbol: &symbol, Decimals: 18}
	}
	return analysis.New(analysis.Options{
		Providers: chain.Providers{domain.ChainEthereum: p},
	})
}

func testConfig(mode, format string) config {
	cfg, err := parseConfig(mode, "ethereum", format, 2, 10*time.Second)
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestParseConfig(t *testing.T) {
	if _, err := parseConfig("deep", "ethereum", "json", 1, time.Second); err == nil {
		t.Error("expected unknown mode error")
	}
	if _, err := parseConfig("quick", "ethereum", "html", 1, time.Second); err == nil {
		t.Error("expected unknown format error")
	}
	if _, err := parseConfig("quick", "solana", "json", 1, time.Second); err == nil {
		t.Error("expected unsupported chain error")
	}

	cfg, err := parseConfig("quick", "", "json", 0, time.Second)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.chain != domain.ChainEthereum || cfg.concurrency != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestRun_MarkdownKeepsArgumentOrder(t *testing.T) {
	var out bytes.Buffer
	failed, err := run(context.Background(), newService(), testConfig(modeContract, formatMarkdown), []string{tokenB, tokenA}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}

	s := out.String()
	b := strings.Index(s, "# Contract Analysis: "+tokenB)
	a := strings.Index(s, "# Contract Analysis: "+tokenA)
	if a < 0 || b < 0 || b > a {
		t.Errorf("expected %s before %s in output:\n%s", tokenB, tokenA, s)
	}
	if !strings.Contains(s, "\n---\n") {
		t.Error("expected separator between reports")
	}
}

func TestRun_JSONCollectsFailures(t *testing.T) {
	var out bytes.Buffer
	failed, err := run(context.Background(), newService(), testConfig(modeQuick, formatJSON), []string{tokenA, empty, "nope"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(failed) != 1 || failed[0].address != "nope" || !errors.Is(failed[0].err, analysis.ErrInvalidAddress) {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	var checks []domain.QuickCheck
	if err := json.Unmarshal(out.Bytes(), &checks); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	if !checks[0].IsContract || checks[1].IsContract {
		t.Errorf("unexpected contract flags: %+v", checks)
	}
}

func TestRun_SingleJSONObject(t *testing.T) {
	var out bytes.Buffer
	if _, err := run(context.Background(), newService(), testConfig(modeQuick, formatJSON), []string{tokenA}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var check domain.QuickCheck
	if err := json.Unmarshal(out.Bytes(), &check); err != nil {
		t.Fatalf("expected a single object: %v", err)
	}
	if check.Address != tokenA || check.Token == nil || *check.Token.Symbol != "AAA" {
		t.Errorf("unexpected check: %+v", check)
	}
}
