package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/dropstab-client/pkg/client"
	"github.com/Sternrassler/dropstab-client/pkg/logging"
	"github.com/Sternrassler/dropstab-client/pkg/ratelimit"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_pages_fetched_total",
		Help: "List pages fetched by endpoint",
	}, []string{"endpoint"})

	itemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropstab_items_fetched_total",
		Help: "List items accumulated by endpoint",
	}, []string{"endpoint"})
)

// Query parameter names used by list endpoints.
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
)

// Getter is the single-request interface the paginator drives.
// *client.Client implements it.
type Getter interface {
	Get(ctx context.Context, path string, params url.Values) (*client.Response, error)
}

// Config holds paginator configuration
type Config struct {
	// PageSize is sent as pageSize on every request
	PageSize int
	// Delay is slept between consecutive pages
	Delay time.Duration
	// Sleep waits out Delay. Defaults to ratelimit.Sleep.
	Sleep ratelimit.SleepFunc
}

// DefaultConfig returns the default page size and inter-page delay.
func DefaultConfig() Config {
	return Config{
		PageSize: 100,
		Delay:    750 * time.Millisecond,
	}
}

// Paginator walks a list endpoint page by page.
type Paginator struct {
	getter Getter
	config Config
	logger zerolog.Logger
}

// New creates a paginator. Non-positive settings fall back to defaults.
func New(getter Getter, config Config) *Paginator {
	def := DefaultConfig()
	if config.PageSize <= 0 {
		config.PageSize = def.PageSize
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.Sleep == nil {
		config.Sleep = ratelimit.Sleep
	}
	return &Paginator{
		getter: getter,
		config: config,
		logger: logging.NewLogger("pagination"),
	}
}

// page is the decoded pagination envelope of one response.
type page struct {
	content     []jsoniter.RawMessage
	totalPages  int
	currentPage int
	// hasMeta is false when totalPages or currentPage is missing or not an integer.
	hasMeta bool
}

// FetchAll requests path with page=0,1,... and returns the concatenated
// content of every page. params are sent with every request; page and
// pageSize are set by the paginator.
//
// Any request error aborts the loop and no items are returned.
func (p *Paginator) FetchAll(ctx context.Context, path string, params url.Values) ([]jsoniter.RawMessage, error) {
	start := time.Now()
	items := make([]jsoniter.RawMessage, 0)

	for pageNum := 0; ; pageNum++ {
		q := cloneValues(params)
		q.Set(ParamPage, strconv.Itoa(pageNum))
		q.Set(ParamPageSize, strconv.Itoa(p.config.PageSize))

		resp, err := p.getter.Get(ctx, path, q)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d of %s: %w", pageNum, path, err)
		}
		pg := parsePage(resp)
		items = append(items, pg.content...)

		pagesFetched.WithLabelValues(path).Inc()
		itemsFetched.WithLabelValues(path).Add(float64(len(pg.content)))

		evt := p.logger.Info().
			Str("endpoint", path).
			Int("page", pageNum).
			Int("items", len(pg.content))
		if pg.hasMeta {
			evt = evt.Int("current_page", pg.currentPage).Int("last_page", pg.totalPages-1)
		}
		evt.Msg("Fetched page")

		if len(pg.content) == 0 || !pg.hasMeta {
			break
		}
		if pg.currentPage != pageNum {
			p.logger.Warn().
				Str("endpoint", path).
				Int("requested_page", pageNum).
				Int("current_page", pg.currentPage).
				Int("total_pages", pg.totalPages).
				Msg("Server page index differs from requested page")
		}
		if pg.currentPage >= pg.totalPages-1 || pageNum >= pg.totalPages-1 {
			break
		}

		if err := p.config.Sleep(ctx, p.config.Delay); err != nil {
			return nil, fmt.Errorf("pause after page %d of %s: %w", pageNum, path, err)
		}
	}

	p.logger.Info().
		Str("endpoint", path).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// parsePage extracts content and pagination metadata from the "data"
// object. Fields that are absent or of the wrong type are treated as
// missing; the caller stops on either condition.
func parsePage(resp *client.Response) page {
	var pg page

	fields, ok := client.Object(resp.Payload())
	if !ok {
		return pg
	}
	data, ok := client.Object(fields["data"])
	if !ok {
		return pg
	}

	if raw, ok := data["content"]; ok {
		if err := jsoniter.Unmarshal(raw, &pg.content); err != nil {
			pg.content = nil
		}
	}

	total, okTotal := intField(data, "totalPages")
	current, okCurrent := intField(data, "currentPage")
	if okTotal && okCurrent {
		pg.totalPages = total
		pg.currentPage = current
		pg.hasMeta = true
	}
	return pg
}

func intField(fields map[string]jsoniter.RawMessage, name string) (int, bool) {
	raw, ok := fields[name]
	if !ok {
		return 0, false
	}
	var v *int
	if err := jsoniter.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
