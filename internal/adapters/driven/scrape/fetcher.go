// Package scrape downloads regulatory commission orders from a JSON
// listing endpoint.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.OrderFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAgeMonths bounds how far back the listing is walked.
	DefaultMaxAgeMonths = 3

	// DefaultDownloadsPerSecond throttles PDF downloads so the source
	// site is not hammered.
	DefaultDownloadsPerSecond = 2

	// timestampLayout is the listing's order date format.
	timestampLayout = "20060102"
)

// DefaultTerms are the order categories worth indexing.
var DefaultTerms = []string{"Open Access", "Multi Year Tariff MYT"}

// Config holds configuration for the order fetcher.
type Config struct {
	// ListingURL is the JSON listing endpoint (required).
	ListingURL string

	// DownloadsDir is where PDFs are saved (required).
	DownloadsDir string

	// Terms restricts which order categories are downloaded
	// (default: Open Access and Multi Year Tariff MYT).
	Terms []string

	// MaxAgeMonths bounds how far back the listing is walked (default: 3).
	MaxAgeMonths int

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// DownloadsPerSecond throttles PDF downloads (default: 2).
	DownloadsPerSecond int
}

// Fetcher walks a newest-first order listing, downloads matching PDFs,
// and returns the local paths of everything worth indexing.
type Fetcher struct {
	client       *http.Client
	listingURL   string
	downloadsDir string
	terms        map[string]bool
	maxAgeMonths int
	limiter      *rate.Limiter

	now func() time.Time
}

// listing is the JSON shape of the order listing endpoint.
type listing struct {
	Data []orderEntry `json:"data"`
}

type orderEntry struct {
	Timestamp  string       `json:"timestamp"`
	Terms      string       `json:"terms"`
	Attachment []attachment `json:"attachment"`
}

type attachment struct {
	URL string `json:"url"`
}

// NewFetcher creates an order fetcher.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if cfg.ListingURL == "" {
		return nil, fmt.Errorf("%w: listing URL is required", domain.ErrInvalidInput)
	}
	if cfg.DownloadsDir == "" {
		return nil, fmt.Errorf("%w: downloads directory is required", domain.ErrInvalidInput)
	}
	if len(cfg.Terms) == 0 {
		cfg.Terms = DefaultTerms
	}
	if cfg.MaxAgeMonths == 0 {
		cfg.MaxAgeMonths = DefaultMaxAgeMonths
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DownloadsPerSecond == 0 {
		cfg.DownloadsPerSecond = DefaultDownloadsPerSecond
	}

	terms := make(map[string]bool, len(cfg.Terms))
	for _, term := range cfg.Terms {
		terms[term] = true
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.DownloadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.DownloadsPerSecond), 1)
	}

	return &Fetcher{
		client:       &http.Client{Timeout: cfg.Timeout},
		listingURL:   cfg.ListingURL,
		downloadsDir: cfg.DownloadsDir,
		terms:        terms,
		maxAgeMonths: cfg.MaxAgeMonths,
		limiter:      limiter,
		now:          time.Now,
	}, nil
}

// Fetch walks the listing newest-first, stopping at the age cutoff, and
// downloads every matching attachment not already on disk. Individual
// download failures are logged and skipped so one broken link does not
// sink the batch.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(f.downloadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating downloads dir: %w", err)
	}

	orders, err := f.fetchListing(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := f.now().AddDate(0, -f.maxAgeMonths, 0)

	var paths []string
	seen := make(map[string]bool)

	for _, order := range orders {
		issued, err := time.Parse(timestampLayout, order.Timestamp)
		if err != nil {
			logger.Warn("Skipping order with bad timestamp %q: %v", order.Timestamp, err)
			continue
		}

		// The listing is newest-first, so the first order past the
		// cutoff ends the walk.
		if issued.Before(cutoff) {
			logger.Debug("Order dated %s is older than %d months, stopping", order.Timestamp, f.maxAgeMonths)
			break
		}

		if !f.terms[order.Terms] {
			logger.Debug("Skipping order category %q", order.Terms)
			continue
		}

		for _, att := range order.Attachment {
			savePath, err := f.obtain(ctx, att.URL)
			if err != nil {
				logger.Warn("Failed to download %s: %v", att.URL, err)
				continue
			}
			if !seen[savePath] {
				seen[savePath] = true
				paths = append(paths, savePath)
			}
		}
	}

	return paths, nil
}

func (f *Fetcher) fetchListing(ctx context.Context) ([]orderEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.listingURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create listing request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	var decoded listing
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	return decoded.Data, nil
}

// obtain returns the local path for an attachment, downloading it only
// when it is not already on disk.
func (f *Fetcher) obtain(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse attachment URL: %w", err)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("%w: attachment URL has no filename: %s", domain.ErrInvalidInput, rawURL)
	}

	savePath := filepath.Join(f.downloadsDir, filename)
	if _, err := os.Stat(savePath); err == nil {
		logger.Debug("File already exists: %s", filename)
		return savePath, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if err := f.download(ctx, rawURL, savePath); err != nil {
		return "", err
	}

	logger.Info("Downloaded %s", filename)
	return savePath, nil
}

// download streams the attachment to a temp file and renames it into
// place, so an interrupted transfer never leaves a partial PDF behind.
func (f *Fetcher) download(ctx context.Context, rawURL, savePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.downloadsDir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), savePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename download: %w", err)
	}

	return nil
}
