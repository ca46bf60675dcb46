package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"monthcal/internal/fsutil"
	appLog "monthcal/internal/log"
)

// Feed is a single ICS subscription.
type Feed struct {
	// ID is the calendar identifier used in logs and the pipeline.
	ID string
	// URL is the ICS endpoint.
	URL string
}

// cacheMeta holds HTTP validators for a single feed URL.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds using conditional GETs (ETag /
// Last-Modified) backed by an on-disk cache. A cached body is served when
// the origin answers 304 or is unreachable.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir. A nil client gets a
// 15s timeout default.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./data/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch returns the body of feed and whether it came from the cache.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]byte, bool, error) {
	if feed.URL == "" {
		return nil, false, errors.New("ics: feed URL is empty")
	}

	dir := f.cacheDirFor(feed.URL)
	if err := os.MkdirAll(dir, fsutil.PrivateDir); err != nil {
		return nil, false, err
	}

	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, false, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics fetch start", "id", feed.ID, "url", redactURL(feed.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cached) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "id", feed.ID, "url", redactURL(feed.URL))
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("ics: fetch %s: %w", feed.ID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("ics: read %s: %w", feed.ID, err)
		}
		next := cacheMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", feed.ID)
		}
		appLog.Info("ics fetch success", "id", feed.ID, "bytes", len(body))
		return body, false, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, false, fmt.Errorf("ics: %s answered 304 but nothing is cached", feed.ID)
		}
		appLog.Info("ics not modified; using cache", "id", feed.ID)
		return cached, true, nil

	default:
		if len(cached) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "id", feed.ID, "status", resp.StatusCode)
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("ics: fetch %s: %s", feed.ID, resp.Status)
	}
}

func (f *Fetcher) cacheDirFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, "body.ics"), body, fsutil.PrivateFile, fsutil.PrivateDir); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(dir, "meta.json"), data, fsutil.PrivateFile, fsutil.PrivateDir)
}

// redactURL keeps only scheme and host; ICS URLs often embed secret tokens.
func redactURL(u string) string {
	const suffix = "/...(redacted)"
	_, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "ics://...(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	return u[:len(u)-len(rest)] + host + suffix
}
