package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/skillhub/pkg/logger"
)

// client is a thin JSON client for the skillhub API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) listSlugs(ctx context.Context) ([]string, error) {
	var resp struct {
		Skills []struct {
			Slug string `json:"slug"`
		} `json:"skills"`
	}
	status, err := c.do(ctx, http.MethodGet, "/skills", nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list skills: status %d", status)
	}
	slugs := make([]string, 0, len(resp.Skills))
	for _, s := range resp.Skills {
		slugs = append(slugs, s.Slug)
	}
	return slugs, nil
}

func (c *client) allRatings(ctx context.Context) (map[string]skillRatings, error) {
	var resp struct {
		Ratings map[string]skillRatings `json:"ratings"`
	}
	status, err := c.do(ctx, http.MethodGet, "/ratings", nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list ratings: status %d", status)
	}
	return resp.Ratings, nil
}

func (c *client) skillRatings(ctx context.Context, slug string) (skillRatings, error) {
	var resp struct {
		Ratings skillRatings `json:"ratings"`
	}
	status, err := c.do(ctx, http.MethodGet, "/skills/"+url.PathEscape(slug)+"/ratings", nil, &resp)
	if err != nil {
		return skillRatings{}, err
	}
	if status != http.StatusOK {
		return skillRatings{}, fmt.Errorf("ratings of %s: status %d", slug, status)
	}
	return resp.Ratings, nil
}

// submitRatings posts subs through a pool of workers and returns the ones
// the server accepted.
func submitRatings(ctx context.Context, c *client, cfg *Config, subs []Submission, stats *Stats) []Submission {
	log := logger.Get()
	log.Info(ctx, "submitting ratings", logger.Int("count", len(subs)), logger.Int("workers", cfg.Workers))

	var submitted, accepted, rejected, failed int64
	var lastReport atomic.Int64

	var mu sync.Mutex
	kept := make([]Submission, 0, len(subs))

	ch := make(chan Submission, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				switch outcome := submitOne(ctx, c, sub); outcome {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
					mu.Lock()
					kept = append(kept, sub)
					mu.Unlock()
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "rating failed", logger.String("slug", sub.Slug), logger.String("name", sub.Name))
					}
				}
				total := atomic.AddInt64(&submitted, 1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", total),
						logger.Int("total", len(subs)),
						logger.Int64("accepted", atomic.LoadInt64(&accepted)),
						logger.Int64("failed", atomic.LoadInt64(&failed)))
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case ch <- sub:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted)
	stats.Accepted = int(accepted)
	stats.Rejected = int(rejected)
	stats.Failed = int(failed)
	return kept
}

func submitOne(ctx context.Context, c *client, sub Submission) string {
	status, err := c.do(ctx, http.MethodPost, "/skills/"+url.PathEscape(sub.Slug)+"/rate", sub, nil)
	switch {
	case err != nil:
		return outcomeFailed
	case status == http.StatusOK:
		return outcomeAccepted
	case status >= 400 && status < 500:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
