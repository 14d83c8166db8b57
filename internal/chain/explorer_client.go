package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contract-risk-lab/internal/domain"
	"contract-risk-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Explorer block range covering the whole chain.
const (
	startBlock = "0"
	endBlock   = "99999999"
)

// ExplorerClient talks to an Etherscan-compatible HTTP API.
type ExplorerClient struct {
	endpoint    string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures ExplorerClient.
type ClientOption func(*ExplorerClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ExplorerClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *ExplorerClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *ExplorerClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *ExplorerClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ExplorerClient) {
		c.client = client
	}
}

// NewExplorerClient creates a new explorer client. apiKey may be empty,
// in which case source and creator lookups return ErrNoAPIKey.
func NewExplorerClient(endpoint, apiKey string, opts ...ClientOption) *ExplorerClient {
	c := &ExplorerClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// explorerResponse is the envelope of every explorer response.
type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// explorerError is a status "0" response that is not an empty result.
type explorerError struct {
	Message string
	Result  string
}

func (e *explorerError) Error() string {
	return fmt.Sprintf("explorer error: %s: %s", e.Message, e.Result)
}

// get performs an explorer request with retries and exponential backoff.
// A status "0" response with an empty result yields ErrNotFound.
func (c *ExplorerClient) get(ctx context.Context, params url.Values, result interface{}) (err error) {
	action := params.Get("action")
	start := time.Now()
	defer func() {
		observability.RecordExplorerRequest(action, time.Since(start).Seconds(), err)
	}()

	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	reqURL := c.endpoint + "?" + params.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var env explorerResponse
		if err := json.Unmarshal(respBody, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if env.Status != "1" {
			var msg string
			if err := json.Unmarshal(env.Result, &msg); err != nil {
				msg = string(env.Result)
			}
			// Explorer rate limits arrive as status 0 with HTTP 200.
			if strings.Contains(strings.ToLower(msg), "rate limit") {
				lastErr = &explorerError{Message: env.Message, Result: msg}
				continue
			}
			if isEmptyResult(env.Message, env.Result) {
				return ErrNotFound
			}
			return &explorerError{Message: env.Message, Result: msg}
		}

		if result != nil {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isEmptyResult(message string, result json.RawMessage) bool {
	if strings.HasPrefix(strings.ToLower(message), "no ") {
		return true
	}
	trimmed := strings.TrimSpace(string(result))
	return trimmed == "[]" || trimmed == "null" || trimmed == `""`
}

type sourceResult struct {
	SourceCode       string `json:"SourceCode"`
	ABI              string `json:"ABI"`
	ContractName     string `json:"ContractName"`
	CompilerVersion  string `json:"CompilerVersion"`
	OptimizationUsed string `json:"OptimizationUsed"`
	Runs             string `json:"Runs"`
	LicenseType      string `json:"LicenseType"`
	Proxy            string `json:"Proxy"`
	Implementation   string `json:"Implementation"`
}

// GetSource returns the verified source profile, or nil when unverified.
func (c *ExplorerClient) GetSource(ctx context.Context, address string) (*domain.ContractProfile, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	var results []sourceResult
	if err := c.get(ctx, params, &results); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getsourcecode: %w", err)
	}
	if len(results) == 0 || results[0].SourceCode == "" {
		return nil, nil
	}

	r := results[0]
	runs, _ := strconv.Atoi(r.Runs)
	return &domain.ContractProfile{
		Address:          strings.ToLower(address),
		Verified:         true,
		ContractName:     r.ContractName,
		CompilerVersion:  r.CompilerVersion,
		OptimizationUsed: r.OptimizationUsed == "1",
		Runs:             runs,
		License:          r.LicenseType,
		Proxy:            r.Proxy == "1",
		Implementation:   strings.ToLower(r.Implementation),
		SourceCode:       r.SourceCode,
		ABI:              r.ABI,
	}, nil
}

type creationResult struct {
	ContractAddress string `json:"contractAddress"`
	ContractCreator string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
}

// GetCreator returns the deployer of a contract, or nil when unknown.
func (c *ExplorerClient) GetCreator(ctx context.Context, address string) (*domain.CreationRecord, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getcontractcreation")
	params.Set("contractaddresses", address)

	var results []creationResult
	if err := c.get(ctx, params, &results); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getcontractcreation: %w", err)
	}
	if len(results) == 0 || results[0].ContractCreator == "" {
		return nil, nil
	}

	return &domain.CreationRecord{
		Deployer: strings.ToLower(results[0].ContractCreator),
		TxHash:   results[0].TxHash,
	}, nil
}

type txResult struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Input           string `json:"input"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	IsError         string `json:"isError"`
}

var txActions = map[domain.TxKind]string{
	domain.TxNormal:   "txlist",
	domain.TxInternal: "txlistinternal",
	domain.TxToken:    "tokentx",
}

// GetTransactions returns one page of a transaction stream.
// An address without transactions yields an empty slice.
func (c *ExplorerClient) GetTransactions(ctx context.Context, address string, q TxQuery) ([]domain.Transaction, error) {
	action, ok := txActions[q.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown transaction kind %q", q.Kind)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 || size > MaxPageSize {
		size = MaxPageSize
	}
	sort := "desc"
	if q.Ascending {
		sort = "asc"
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", startBlock)
	params.Set("endblock", endBlock)
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(size))
	params.Set("sort", sort)

	var results []txResult
	if err := c.get(ctx, params, &results); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []domain.Transaction{}, nil
		}
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	txs := make([]domain.Transaction, 0, len(results))
	for _, r := range results {
		txs = append(txs, r.toDomain(q.Kind))
	}
	return txs, nil
}

func (r txResult) toDomain(kind domain.TxKind) domain.Transaction {
	block, _ := strconv.ParseUint(r.BlockNumber, 10, 64)
	ts, _ := strconv.ParseInt(r.TimeStamp, 10, 64)

	value := new(big.Int)
	if kind != domain.TxToken {
		if _, ok := value.SetString(r.Value, 10); !ok {
			value.SetInt64(0)
		}
	}

	tx := domain.Transaction{
		Kind:        kind,
		Hash:        r.Hash,
		BlockNumber: block,
		Timestamp:   ts,
		From:        strings.ToLower(r.From),
		To:          strings.ToLower(r.To),
		Value:       value,
		Input:       r.Input,
		TokenSymbol: r.TokenSymbol,
		IsError:     r.IsError == "1",
	}
	// Token transfers carry the token contract, not a created contract.
	if kind != domain.TxToken {
		tx.ContractAddress = strings.ToLower(r.ContractAddress)
	}
	return tx
}
