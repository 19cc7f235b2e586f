package routes

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/guiaurbana/geocore/internal/kml"
	"github.com/guiaurbana/geocore/internal/model"
)

// LineGeometry is a line plus its parsed route segments.
type LineGeometry struct {
	Line      Line
	Polylines []model.RoutePolyline
}

// LoadResult is the outcome of loading every registered line. A line whose
// document fails to load lands in Failed; the rest still render.
type LoadResult struct {
	Loaded []LineGeometry
	Failed map[string]error
}

// LoaderOptions configures the document loader.
type LoaderOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	Concurrency int
	UserAgent   string
}

// Loader fetches and parses route geometry documents. Documents are plain
// static files; per-host pacing is politeness, not a provider contract, so
// lines load concurrently.
type Loader struct {
	client *http.Client
	opts   LoaderOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 4
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "guiaurbana-geocore/1.0"
	}
	return &Loader{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// LoadAll fetches and parses every line's document. Per-line failures are
// collected, not fatal; the returned Loaded slice preserves registry order.
func (l *Loader) LoadAll(ctx context.Context, lines []Line) (*LoadResult, error) {
	result := &LoadResult{Failed: make(map[string]error)}
	geoms := make([]*LineGeometry, len(lines))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for i, line := range lines {
		g.Go(func() error {
			polylines, err := l.Load(gctx, line)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("routes: line document failed to load",
					zap.String("line", line.Slug),
					zap.Error(err),
				)
				result.Failed[line.Slug] = err
				return nil
			}
			geoms[i] = &LineGeometry{Line: line, Polylines: polylines}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, eris.Wrap(err, "routes: load all")
	}

	for _, geom := range geoms {
		if geom != nil {
			result.Loaded = append(result.Loaded, *geom)
		}
	}
	return result, nil
}

// Load fetches one line's document and parses its geometry.
func (l *Loader) Load(ctx context.Context, line Line) ([]model.RoutePolyline, error) {
	body, err := l.fetch(ctx, line.KMLURL)
	if err != nil {
		return nil, err
	}

	polylines, err := kml.ParseRouteString(body)
	if err != nil {
		return nil, eris.Wrapf(err, "routes: parse document for %s", line.Slug)
	}
	return polylines, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	if err := l.limiterFor(rawURL).Wait(ctx); err != nil {
		return "", eris.Wrap(err, "routes: rate limiter wait")
	}

	var lastErr error
	for attempt := range l.opts.MaxRetries {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", eris.Wrap(err, "routes: build request")
		}
		req.Header.Set("User-Agent", l.opts.UserAgent)

		resp, err := l.client.Do(req)
		if err != nil {
			lastErr = err
			l.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("routes: status %d from %s", resp.StatusCode, rawURL)
			l.backoff(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return "", eris.Errorf("routes: status %d from %s", resp.StatusCode, rawURL)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", eris.Wrap(err, "routes: read body")
		}
		return string(body), nil
	}
	return "", eris.Wrap(lastErr, "routes: retries exhausted")
}

// limiterFor returns the per-host limiter, creating it on first use.
func (l *Loader) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(5, 5)
		l.limiters[host] = lim
	}
	return lim
}

func (l *Loader) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(time.Second) * math.Pow(2, float64(attempt)))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
