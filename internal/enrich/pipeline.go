// Package enrich orchestrates the batch geocoding of place records against
// a fixed reference point.
package enrich

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/guiaurbana/geocore/internal/geodist"
	"github.com/guiaurbana/geocore/internal/model"
	"github.com/guiaurbana/geocore/pkg/nominatim"
)

// DefaultMinInterval is the mandatory spacing between geocoding lookups,
// measured start-to-start. The provider runs on shared infrastructure with
// a ~1 req/s ceiling; issuing requests faster (or in parallel) gets the
// caller's network identity blocked. This is a correctness constraint, not
// a throttle to tune.
const DefaultMinInterval = 1500 * time.Millisecond

// Pipeline geocodes place batches sequentially. One worker, one request in
// flight, a blocking pause between iterations; no retries, so a run of N
// items takes a predictable O(N) fixed-delay iterations.
type Pipeline struct {
	geocoder    nominatim.Client
	limiter     *rate.Limiter
	minInterval time.Duration
	locality    string
	region      string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinInterval overrides the inter-request spacing. Intended for tests;
// production runs keep the default.
func WithMinInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		p.minInterval = d
	}
}

// New creates a Pipeline. locality and region are appended to every street
// before geocoding, since the raw records carry bare street addresses.
func New(geocoder nominatim.Client, locality, region string, opts ...Option) *Pipeline {
	p := &Pipeline{
		geocoder:    geocoder,
		minInterval: DefaultMinInterval,
		locality:    locality,
		region:      region,
	}
	for _, opt := range opts {
		opt(p)
	}
	// Burst 1: the first lookup fires immediately, every later one waits
	// out the interval from the previous start.
	p.limiter = rate.NewLimiter(rate.Every(p.minInterval), 1)
	return p
}

// Enrich geocodes the given places against referenceAddress. The reference
// is resolved once; if that fails the fixed fallback coordinate is used and
// flagged in the summary; the fallback is an approximation and is logged
// as such, never silently equated with a verified geocode.
//
// Per-item failures never abort the run: the place stays in the output with
// its coordinate unset and the pending ETA label, so partial-failure runs
// still produce a usable, re-runnable dataset. Output order matches the
// filtered input order. Re-running on already-enriched records recomputes
// and overwrites rather than accumulating.
//
// Cancellation between items is safe: the enriched prefix accumulated so
// far is returned along with the summary and the context error.
func (p *Pipeline) Enrich(ctx context.Context, places []model.PlaceRecord, referenceAddress string, fallback model.Coordinate) ([]model.EnrichedPlace, model.RunSummary, error) {
	log := zap.L().With(zap.String("component", "enrich"))
	start := time.Now()
	var summary model.RunSummary

	// The reference lookup counts against the provider interval too.
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, summary, eris.Wrap(err, "enrich: interrupted")
	}
	reference, usedFallback := p.resolveReference(ctx, referenceAddress, fallback, log)
	summary.UsedFallbackReference = usedFallback

	// Records missing a name or street are not enrichable; excluding them
	// is not an error.
	enrichable := make([]model.PlaceRecord, 0, len(places))
	for _, pl := range places {
		if pl.Enrichable() {
			enrichable = append(enrichable, pl)
		} else {
			summary.Skipped++
		}
	}

	enriched := make([]model.EnrichedPlace, 0, len(enrichable))
	for _, pl := range enrichable {
		if err := p.limiter.Wait(ctx); err != nil {
			summary.Duration = time.Since(start)
			return enriched, summary, eris.Wrap(err, "enrich: interrupted")
		}

		summary.Attempted++
		enriched = append(enriched, p.enrichOne(ctx, pl, reference, &summary, log))
	}

	summary.Duration = time.Since(start)
	log.Info("enrichment run complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("used_fallback_reference", summary.UsedFallbackReference),
		zap.Duration("duration", summary.Duration),
	)
	return enriched, summary, nil
}

// resolveReference geocodes the reference address once, falling back to the
// fixed coordinate on any failure.
func (p *Pipeline) resolveReference(ctx context.Context, address string, fallback model.Coordinate, log *zap.Logger) (model.Coordinate, bool) {
	coord, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Warn("enrich: reference address did not resolve, using approximate fallback coordinate",
			zap.String("reference", address),
			zap.Float64("fallback_lat", fallback.Lat),
			zap.Float64("fallback_lng", fallback.Lng),
			zap.Error(err),
		)
		return fallback, true
	}
	return coord, false
}

// enrichOne geocodes a single place and derives distance and ETA label.
func (p *Pipeline) enrichOne(ctx context.Context, pl model.PlaceRecord, reference model.Coordinate, summary *model.RunSummary, log *zap.Logger) model.EnrichedPlace {
	out := model.EnrichedPlace{PlaceRecord: pl, ETALabel: geodist.PendingETALabel}

	query := fmt.Sprintf("%s, %s, %s", pl.Street, p.locality, p.region)
	coord, err := p.geocoder.Geocode(ctx, query)
	if err != nil {
		summary.Failed++
		if nominatim.IsNoResult(err) {
			log.Debug("enrich: no geocode candidate", zap.String("place", pl.Name))
		} else {
			log.Warn("enrich: transient geocode failure, place left pending",
				zap.String("place", pl.Name),
				zap.Error(err),
			)
		}
		return out
	}

	meters := int(math.Round(geodist.HaversineMeters(reference, coord)))
	out.Coordinate = &coord
	out.DistanceMeters = &meters
	out.ETALabel = geodist.WalkingETALabel(float64(meters))
	summary.Succeeded++
	return out
}
