package pagination

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/dropstab-client/internal/testutil"
	"github.com/Sternrassler/dropstab-client/pkg/client"
)

// mockGetter serves canned bodies in order and records the params it saw.
type mockGetter struct {
	bodies []string
	err    error
	params []url.Values
}

func (m *mockGetter) Get(_ context.Context, path string, params url.Values) (*client.Response, error) {
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.params) - 1
	if i >= len(m.bodies) {
		return nil, errors.New("unexpected extra request")
	}
	return &client.Response{StatusCode: http.StatusOK, Body: []byte(m.bodies[i])}, nil
}

type sleeps struct{ calls []time.Duration }

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestPaginator(g Getter) (*Paginator, *sleeps) {
	s := &sleeps{}
	cfg := DefaultConfig()
	cfg.Sleep = s.sleep
	return New(g, cfg), s
}

func joinItems(items [][]byte) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = string(it)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestFetchAll_Termination(t *testing.T) {
	tests := []struct {
		name      string
		bodies    []string
		wantItems string
		wantCalls int
	}{
		{
			name:      "single page",
			bodies:    []string{`{"data":{"content":[1,2],"totalPages":1,"currentPage":0}}`},
			wantItems: "[1,2]",
			wantCalls: 1,
		},
		{
			name:      "empty first page",
			bodies:    []string{`{"data":{"content":[],"totalPages":5,"currentPage":0}}`},
			wantItems: "[]",
			wantCalls: 1,
		},
		{
			name: "three pages",
			bodies: []string{
				`{"data":{"content":[1,2],"totalPages":3,"currentPage":0}}`,
				`{"data":{"content":[3,4],"totalPages":3,"currentPage":1}}`,
				`{"data":{"content":[5],"totalPages":3,"currentPage":2}}`,
			},
			wantItems: "[1,2,3,4,5]",
			wantCalls: 3,
		},
		{
			name: "empty page before last",
			bodies: []string{
				`{"data":{"content":[{"a":1}],"totalPages":4,"currentPage":0}}`,
				`{"data":{"content":[],"totalPages":4,"currentPage":1}}`,
			},
			wantItems: `[{"a":1}]`,
			wantCalls: 2,
		},
		{
			name:      "missing totalPages",
			bodies:    []string{`{"data":{"content":[1],"currentPage":0}}`},
			wantItems: "[1]",
			wantCalls: 1,
		},
		{
			name:      "null currentPage",
			bodies:    []string{`{"data":{"content":[1],"totalPages":3,"currentPage":null}}`},
			wantItems: "[1]",
			wantCalls: 1,
		},
		{
			name:      "no data key",
			bodies:    []string{`{"content":[1],"totalPages":3,"currentPage":0}`},
			wantItems: "[]",
			wantCalls: 1,
		},
		{
			name:      "text body",
			bodies:    []string{`maintenance`},
			wantItems: "[]",
			wantCalls: 1,
		},
		{
			name: "currentPage stuck behind requested page",
			bodies: []string{
				`{"data":{"content":[1],"totalPages":2,"currentPage":0}}`,
				`{"data":{"content":[2],"totalPages":2,"currentPage":0}}`,
			},
			wantItems: "[1,2]",
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &mockGetter{bodies: tt.bodies}
			p, s := newTestPaginator(g)

			items, err := p.FetchAll(context.Background(), "coins", nil)
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}

			raw := make([][]byte, len(items))
			for i, it := range items {
				raw[i] = it
			}
			if got := joinItems(raw); got != tt.wantItems {
				t.Errorf("items = %s, want %s", got, tt.wantItems)
			}
			if len(g.params) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(g.params), tt.wantCalls)
			}
			if len(s.calls) != tt.wantCalls-1 {
				t.Errorf("sleeps = %d, want %d", len(s.calls), tt.wantCalls-1)
			}
		})
	}
}

func TestFetchAll_PageParams(t *testing.T) {
	g := &mockGetter{bodies: []string{
		`{"data":{"content":[1],"totalPages":2,"currentPage":0}}`,
		`{"data":{"content":[2],"totalPages":2,"currentPage":1}}`,
	}}
	s := &sleeps{}
	p := New(g, Config{PageSize: 50, Delay: 750 * time.Millisecond, Sleep: s.sleep})

	base := url.Values{"coinSlug": {"bitcoin"}}
	if _, err := p.FetchAll(context.Background(), "cryptoActivities/coin/bitcoin", base); err != nil {
		t.Fatal(err)
	}

	for i, q := range g.params {
		if q.Get("page") != []string{"0", "1"}[i] {
			t.Errorf("request %d page = %q", i, q.Get("page"))
		}
		if q.Get("pageSize") != "50" {
			t.Errorf("request %d pageSize = %q, want 50", i, q.Get("pageSize"))
		}
		if q.Get("coinSlug") != "bitcoin" {
			t.Errorf("request %d lost caller params", i)
		}
	}
	if _, ok := base["page"]; ok {
		t.Error("caller params were mutated")
	}
	if len(s.calls) != 1 || s.calls[0] != 750*time.Millisecond {
		t.Errorf("sleeps = %v, want [750ms]", s.calls)
	}
}

func TestFetchAll_Error(t *testing.T) {
	g := &mockGetter{err: errors.New("connection refused")}
	p, _ := newTestPaginator(g)

	items, err := p.FetchAll(context.Background(), "coins", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if items != nil {
		t.Errorf("items = %v, want nil on error", items)
	}
	if !strings.Contains(err.Error(), "fetch page 0 of coins") {
		t.Errorf("error = %v", err)
	}
}

func TestFetchAll_BoundedByTotalPages(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetPages("investors", `[1,2]`, `[3,4]`, `[5,6]`, `[7]`)

	cfg := client.DefaultConfig("k")
	cfg.BaseURL = mock.URL()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := newTestPaginator(c)
	items, err := p.FetchAll(context.Background(), "investors", nil)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(items) != 7 {
		t.Errorf("items = %d, want 7", len(items))
	}
	if mock.RequestCount() != 4 {
		t.Errorf("requests = %d, want 4", mock.RequestCount())
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&mockGetter{}, Config{PageSize: 0, Delay: -time.Second})
	if p.config.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", p.config.PageSize)
	}
	if p.config.Delay != 0 {
		t.Errorf("Delay = %v, want 0", p.config.Delay)
	}
	if p.config.Sleep == nil {
		t.Error("Sleep not defaulted")
	}
}
