package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/pedlens/internal/logging"
)

// Load outcomes reported to a LoadObserver.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// LoadObserver receives load instrumentation. Implementations must be goroutine-safe.
type LoadObserver interface {
	ObserveLoad(source, outcome string, elapsed time.Duration)
	ObserveFallback()
}

// Options configures a Loader.
type Options struct {
	// CSVSource is the tabular resource (URL or path).
	CSVSource string
	// GeoJSONSource is the geometry resource (URL or path).
	GeoJSONSource string
	// Fetcher defaults to NewFetcher(0).
	Fetcher Fetcher
	// Observer is optional.
	Observer LoadObserver
}

// Loader owns the session cache of both resources. Each resource is fetched at most
// once per generation; concurrent callers share the in-flight load.
type Loader struct {
	opts  Options
	group singleflight.Group

	mu         sync.RWMutex
	generation uint64
	session    string
	table      *Table
	features   *FeatureCollection
}

// NewLoader returns a Loader with an empty cache.
func NewLoader(opts Options) *Loader {
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(0)
	}
	return &Loader{opts: opts, session: uuid.NewString()}
}

// Session identifies the current cache generation in logs.
func (l *Loader) Session() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.session
}

// Invalidate drops both cached resources. Loads already in flight finish but do
// not repopulate the cache.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.session = uuid.NewString()
	l.table = nil
	l.features = nil
}

// Records returns the tabular dataset, falling back to records derived from the
// geometry resource when the tabular resource cannot be fetched or parsed.
func (l *Loader) Records(ctx context.Context) (*Table, error) {
	l.mu.RLock()
	t := l.table
	l.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	v, err := l.shared(ctx, "records", func(ctx context.Context) (interface{}, error) {
		return l.loadRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Features returns the geometry resource. It has no fallback.
func (l *Loader) Features(ctx context.Context) (*FeatureCollection, error) {
	l.mu.RLock()
	fc := l.features
	l.mu.RUnlock()
	if fc != nil {
		return fc, nil
	}
	v, err := l.shared(ctx, "features", func(ctx context.Context) (interface{}, error) {
		return l.loadFeatures(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FeatureCollection), nil
}

// shared runs fn once for all concurrent callers of key. The load is detached from
// the caller's cancellation; a cancelled caller only stops waiting.
func (l *Loader) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) { return fn(detached) })
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) loadRecords(ctx context.Context) (*Table, error) {
	log := logging.With("dataset")
	gen, session := l.snapshot()

	start := time.Now()
	tbl, err := l.fetchCSV(ctx)
	l.observe(SourceCSV, err, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Str("session", session).Str("source", l.opts.CSVSource).
			Msg("tabular data unavailable, deriving records from geojson")
		if l.opts.Observer != nil {
			l.opts.Observer.ObserveFallback()
		}
		fc, ferr := l.Features(ctx)
		if ferr != nil {
			return nil, &UnavailableError{Source: l.opts.CSVSource, Err: ferr}
		}
		tbl = TableFromFeatures(fc)
	}
	for _, a := range tbl.Anomalies {
		log.Debug().Str("session", session).Str("source", tbl.Source).Int("line", a.Line).Str("reason", a.Reason).Msg("row anomaly")
	}
	log.Info().Str("session", session).Str("source", tbl.Source).Int("rows", len(tbl.Records)).
		Int("anomalies", len(tbl.Anomalies)).Dur("elapsed", time.Since(start)).Msg("records loaded")

	l.mu.Lock()
	if l.generation == gen {
		l.table = tbl
	}
	l.mu.Unlock()
	return tbl, nil
}

func (l *Loader) fetchCSV(ctx context.Context) (*Table, error) {
	if l.opts.CSVSource == "" {
		return nil, errNoSource
	}
	b, err := l.opts.Fetcher.Fetch(ctx, l.opts.CSVSource)
	if err != nil {
		return nil, err
	}
	return ParseCSV(b)
}

func (l *Loader) loadFeatures(ctx context.Context) (*FeatureCollection, error) {
	log := logging.With("dataset")
	gen, session := l.snapshot()
	start := time.Now()
	fc, err := l.fetchFeatures(ctx)
	l.observe(SourceGeoJSON, err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Str("session", session).Str("source", l.opts.GeoJSONSource).Msg("geojson unavailable")
		return nil, &UnavailableError{Source: l.opts.GeoJSONSource, Err: err}
	}
	log.Info().Str("session", session).Int("features", fc.Len()).
		Dur("elapsed", time.Since(start)).Msg("features loaded")

	l.mu.Lock()
	if l.generation == gen {
		l.features = fc
	}
	l.mu.Unlock()
	return fc, nil
}

func (l *Loader) fetchFeatures(ctx context.Context) (*FeatureCollection, error) {
	if l.opts.GeoJSONSource == "" {
		return nil, errNoSource
	}
	b, err := l.opts.Fetcher.Fetch(ctx, l.opts.GeoJSONSource)
	if err != nil {
		return nil, err
	}
	return ParseFeatureCollection(b)
}

func (l *Loader) snapshot() (uint64, string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation, l.session
}

func (l *Loader) observe(source string, err error, elapsed time.Duration) {
	if l.opts.Observer == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	l.opts.Observer.ObserveLoad(source, outcome, elapsed)
}
