package llama

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultAPIURL    = "https://api.llama.fi"
	DefaultCoinsURL  = "https://coins.llama.fi"
	DefaultYieldsURL = "https://yields.llama.fi"

	maxErrorBody = 512
)

// Config holds endpoints and pacing for the DeFi data APIs.
type Config struct {
	APIURL       string
	CoinsURL     string
	YieldsURL    string
	Timeout      time.Duration
	Cooldown     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	UserAgent    string
}

// Client performs GET requests against the TVL, yields and coins APIs.
// Consecutive calls are spaced at least Cooldown apart.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.CoinsURL == "" {
		cfg.CoinsURL = DefaultCoinsURL
	}
	if cfg.YieldsURL == "" {
		cfg.YieldsURL = DefaultYieldsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "superfest/1.0"
	}

	limit := rate.Inf
	if cfg.Cooldown > 0 {
		limit = rate.Every(cfg.Cooldown)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cooldown: %w", err)
	}

	var body []byte
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		body, err = c.do(ctx, url)
		if err != nil {
			c.logger.Warn("request failed", zap.String("url", url), zap.Error(err))
		}
		return err
	})
	return body, err
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: text}
	}
	return body, nil
}
