// Package fetch runs one resource fetch end to end: resolve, request or
// paginate, wrap in an envelope and write the snapshot.
package fetch

import (
	"context"
	"net/url"
	"time"

	"github.com/Sternrassler/dropstab-client/internal/endpoints"
	"github.com/Sternrassler/dropstab-client/pkg/client"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/pagination"
	"github.com/Sternrassler/dropstab-client/pkg/snapshot"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner executes resource fetches.
type Runner struct {
	getter  pagination.Getter
	pageCfg pagination.Config
	writer  *snapshot.Writer
	runID   string
	now     func() time.Time
	logger  zerolog.Logger
}

// Options configures a Runner.
type Options struct {
	// RunID is recorded in every envelope when set.
	RunID string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes a written snapshot.
type Result struct {
	Resource string
	// Items is the number of top-level items, or -1 for a non-array payload.
	Items int
	// Cached is true when any response came from the response cache.
	Cached    bool
	Locations []string
}

// NewRunner returns a runner issuing requests through getter. List
// resources are paged with pageCfg.
func NewRunner(getter pagination.Getter, pageCfg pagination.Config, writer *snapshot.Writer, opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		getter:  getter,
		pageCfg: pageCfg,
		writer:  writer,
		runID:   opts.RunID,
		now:     opts.Now,
		logger:  logging.NewLogger("fetch"),
	}
}

// Run fetches res for args and writes its snapshot. Input problems are
// returned as *endpoints.UsageError before any request is made.
func (r *Runner) Run(ctx context.Context, res endpoints.Resource, args endpoints.Args) (*Result, error) {
	now := r.now()

	req, err := res.Resolve(args, now)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With().
		Str("resource", res.Key).
		Str("endpoint", req.Path).
		Str("kind", res.Kind.String()).
		Logger()
	logger.Info().Msg("Fetching")

	getter := &cacheTracker{Getter: r.getter}
	items, err := r.items(ctx, req, getter)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", res.Key)
	}

	env := snapshot.NewEnvelope(res.Path, now, items)
	env.PathParams = req.PathParams
	env.QueryParams = req.QueryMap()
	env.RunID = r.runID
	env.Cached = getter.cached
	if getter.cached {
		logger.Warn().Msg("Items served from response cache")
	}

	name := snapshot.Filename(res.File, req.Qualifier, now)
	locations, err := r.writer.Write(ctx, name, env)
	if err != nil {
		return nil, errors.Wrapf(err, "write snapshot %s", name)
	}

	result := &Result{
		Resource:  res.Key,
		Items:     count(items),
		Cached:    getter.cached,
		Locations: locations,
	}

	evt := logger.Info().Strs("locations", locations)
	if result.Items >= 0 {
		evt = evt.Int("items", result.Items)
	}
	evt.Msg("Finished writing snapshot")

	return result, nil
}

func (r *Runner) items(ctx context.Context, req *endpoints.Request, getter pagination.Getter) (jsoniter.RawMessage, error) {
	if req.Resource.Kind == endpoints.KindList {
		content, err := pagination.New(getter, r.pageCfg).FetchAll(ctx, req.Path, req.Query)
		if err != nil {
			return nil, err
		}
		return snapshot.ListItems(content)
	}

	resp, err := getter.Get(ctx, req.Path, req.Query)
	if err != nil {
		return nil, err
	}
	data := resp.Data()
	if req.Resource.WrapList && jsoniter.Get(data).ValueType() != jsoniter.ArrayValue {
		return snapshot.ListItems([]jsoniter.RawMessage{data})
	}
	return data, nil
}

// cacheTracker notes whether any response was served from the cache.
type cacheTracker struct {
	pagination.Getter
	cached bool
}

func (t *cacheTracker) Get(ctx context.Context, path string, params url.Values) (*client.Response, error) {
	resp, err := t.Getter.Get(ctx, path, params)
	if err == nil && resp.FromCache {
		t.cached = true
	}
	return resp, err
}

// count returns the array length of items, or -1 when it is not an array.
func count(items jsoniter.RawMessage) int {
	v := jsoniter.Get(items)
	if v.ValueType() != jsoniter.ArrayValue {
		return -1
	}
	return v.Size()
}
