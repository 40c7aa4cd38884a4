package ebird

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/logging"
	"github.com/wingman2025/birdtarifa/internal/observability"
)

// Package-level logger specific to the ebird service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "ebird.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "ebird", serviceLevelVar)
	if err != nil {
		// Fallback: log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize ebird file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "ebird")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the eBird API.
//
// Calls are never retried internally: the resolver's contract is that a
// caller retries the whole top-level operation, so the client makes exactly
// one attempt per call.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache // hotspot reference data only
	metrics    *observability.Metrics
}

// NewClient creates a new eBird API client. The API key is required; every
// operation fails with a configuration error without one.
func NewClient(config Config, metrics *observability.Metrics) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("eBird API key is required").
			Category(errors.CategoryConfiguration).
			Component("ebird").
			Build()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:   cache.New(config.CacheTTL, config.CacheTTL*2),
		metrics: metrics,
	}

	logger.Info("eBird client initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
		"cache_ttl", config.CacheTTL,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources.
func (c *Client) Close() {
	logger.Info("Closing eBird client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing eBird logger: %v", err)
		}
	}
}

// ClearCache clears cached hotspot reference data.
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("eBird cache cleared")
}

// doRequest performs a single GET request against the eBird API and decodes
// the JSON body into result. Transport and HTTP-status failures come back as
// network-category errors; the caller decides whether to degrade.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, query url.Values, result any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqURL := c.config.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		c.metrics.CountEBirdRequest(endpoint, "error")
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", reqURL).
			Component("ebird").
			Build()
	}

	req.Header.Set("X-eBirdApiToken", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.CountEBirdRequest(endpoint, "error")
		logger.Error("eBird API request failed",
			"error", err,
			"endpoint", endpoint,
			"url", reqURL)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", reqURL).
			Component("ebird").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.CountEBirdRequest(endpoint, "error")
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", reqURL).
			Context("status_code", resp.StatusCode).
			Component("ebird").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.metrics.CountEBirdRequest(endpoint, "error")

		var apiErr Error
		if err := json.Unmarshal(bodyBytes, &apiErr); err != nil {
			apiErr.Detail = string(bodyBytes)
		}
		apiErr.Status = resp.StatusCode

		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			logger.Error("eBird API authentication failed",
				"status_code", resp.StatusCode,
				"url", reqURL,
				"has_api_key", c.config.APIKey != "",
				"message", "Check your eBird API key in the configuration")
		} else {
			logger.Warn("eBird API error response",
				"status_code", resp.StatusCode,
				"error_title", apiErr.Title,
				"error_detail", apiErr.Detail,
				"url", reqURL)
		}

		return errors.Newf("eBird API error (status %d): %s", resp.StatusCode, apiErr.Detail).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", reqURL).
			Component("ebird").
			Build()
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		c.metrics.CountEBirdRequest(endpoint, "error")
		logger.Error("eBird API returned non-JSON response",
			"status_code", resp.StatusCode,
			"content_type", contentType,
			"url", reqURL)
		return errors.Newf("eBird API returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Context("url", reqURL).
			Component("ebird").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.metrics.CountEBirdRequest(endpoint, "error")
			logger.Error("Failed to parse eBird API response",
				"error", err,
				"url", reqURL,
				"response_size", len(bodyBytes))
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", reqURL).
				Context("response_size", len(bodyBytes)).
				Component("ebird").
				Build()
		}
	}

	c.metrics.CountEBirdRequest(endpoint, "success")
	logger.Debug("eBird API request successful",
		"endpoint", endpoint,
		"url", reqURL,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_size", len(bodyBytes))

	return nil
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
		// Authentication errors are critical for user attention
		return errors.CategoryConfiguration
	case 429:
		return errors.CategoryLimit
	case 404:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
