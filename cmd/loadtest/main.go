package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	headerIdempotencyKey = "Idempotency-Key"

	stepScenario    = "scenario"
	stepCreateUser  = "POST /oms/user"
	stepCreateOrder = "POST /oms/order"
	stepGetOrder    = "GET /oms/order/{id}"
	stepOrderByDate = "GET /oms/order?orderDate"
)

type loadMode string

const (
	modeUser      loadMode = "user"
	modeUserOrder loadMode = "user-order"
	modeFull      loadMode = "full"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	emailTag    string
	outputPath  string
}

func parseConfig(args []string) (config, error) {
	var (
		cfg       config
		modeValue string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "OMS HTTP base URL")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&modeValue, "mode", string(modeUserOrder), "load mode: user | user-order | full")
	fs.StringVar(&cfg.emailTag, "email-tag", "load", "local part prefix for generated emails")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode
	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")

	if _, err := url.ParseRequestURI(cfg.baseURL); err != nil {
		return cfg, fmt.Errorf("invalid addr: %w", err)
	}
	if cfg.duration < 0 {
		return cfg, errors.New("duration must be >= 0")
	}
	if cfg.duration == 0 && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when duration is not set")
	}
	if cfg.duration > 0 && cfg.totalSet && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	}
	if cfg.concurrency <= 0 {
		return cfg, errors.New("concurrency must be > 0")
	}
	if cfg.timeout <= 0 {
		return cfg, errors.New("timeout must be > 0")
	}
	if strings.TrimSpace(cfg.emailTag) == "" {
		return cfg, errors.New("email-tag is required")
	}
	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeUser, modeUserOrder, modeFull:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg, &http.Client{Timeout: cfg.timeout})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}

	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// runner выполняет сценарии против одного экземпляра OMS.
type runner struct {
	cfg        config
	client     *http.Client
	col        *collector
	runID      string
	productIDs []int64
}

func run(ctx context.Context, cfg config, client *http.Client) (report, error) {
	startedAt := time.Now()
	r := &runner{
		cfg:    cfg,
		client: client,
		col:    newCollector(),
		runID:  fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid()),
	}

	if cfg.mode != modeUser {
		ids, err := r.fetchProductIDs(ctx)
		if err != nil {
			return report{}, err
		}
		r.productIDs = ids
	}

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				_ = r.runScenario(ctx, index)
			}
		}()
	}

	dispatchJobs(ctx, jobs, cfg)
	wg.Wait()

	return r.col.buildReport(startedAt, time.Since(startedAt)), nil
}

func dispatchJobs(ctx context.Context, jobs chan<- int, cfg config) {
	defer close(jobs)

	var deadline <-chan time.Time
	if cfg.duration > 0 {
		timer := time.NewTimer(cfg.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for i := 0; ; i++ {
		if (cfg.duration <= 0 || cfg.totalSet) && i >= cfg.total {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case jobs <- i:
		}
	}
}

// fetchProductIDs читает каталог: заказу нужен существующий товар.
func (r *runner) fetchProductIDs(ctx context.Context) ([]int64, error) {
	var products []struct {
		ID int64 `json:"id"`
	}
	status, err := r.do(ctx, http.MethodGet, "/oms/products", nil, "", &products)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if status != http.StatusOK || len(products) == 0 {
		return nil, fmt.Errorf("catalog is empty (status %d), seed it first", status)
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r *runner) runScenario(ctx context.Context, index int) (err error) {
	start := time.Now()
	defer func() {
		r.col.record(stepScenario, time.Since(start), http.StatusOK, err == nil)
	}()

	user := map[string]any{
		"name":    fmt.Sprintf("Load %d", index),
		"address": "Load street",
		"phone":   int64(70000000000 + index),
		"email":   fmt.Sprintf("%s-%s-%d@example.com", r.cfg.emailTag, r.runID, index),
	}
	var created struct {
		UID int64 `json:"uid"`
	}
	key := fmt.Sprintf("lt-user-%s-%d", r.runID, index)
	if err := r.step(ctx, stepCreateUser, http.MethodPost, "/oms/user", user, key, http.StatusCreated, &created); err != nil {
		return err
	}
	if r.cfg.mode == modeUser {
		return nil
	}

	order := map[string]any{
		"userId":    created.UID,
		"productId": []int64{r.productIDs[index%len(r.productIDs)]},
	}
	var placed struct {
		OID       int64  `json:"oid"`
		OrderDate string `json:"orderDate"`
	}
	key = fmt.Sprintf("lt-order-%s-%d", r.runID, index)
	if err := r.step(ctx, stepCreateOrder, http.MethodPost, "/oms/order", order, key, http.StatusCreated, &placed); err != nil {
		return err
	}
	if r.cfg.mode == modeUserOrder {
		return nil
	}

	if err := r.step(ctx, stepGetOrder, http.MethodGet, fmt.Sprintf("/oms/order/%d", placed.OID), nil, "", http.StatusOK, nil); err != nil {
		return err
	}
	path := "/oms/order?orderDate=" + url.QueryEscape(placed.OrderDate)
	return r.step(ctx, stepOrderByDate, http.MethodGet, path, nil, "", http.StatusOK, nil)
}

// step выполняет запрос и учитывает его в статистике.
func (r *runner) step(ctx context.Context, name, method, path string, body any, key string, want int, out any) error {
	start := time.Now()
	status, err := r.do(ctx, method, path, body, key, out)
	ok := err == nil && status == want
	r.col.record(name, time.Since(start), status, ok)

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: unexpected status %d", name, status)
	}
	return nil
}

func (r *runner) do(ctx context.Context, method, path string, body any, key string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return statusTransport, err
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, r.cfg.baseURL+path, reader)
	if err != nil {
		return statusTransport, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return statusTransport, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
