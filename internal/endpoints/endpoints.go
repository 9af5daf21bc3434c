// Package endpoints defines the DropsTab resources that can be snapshotted:
// path template, list or detail kind, identifier and query parameters, and
// output filename.
package endpoints

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Kind tells the runner how to fetch a resource.
type Kind int

const (
	// KindList resources are paginated and accumulate data.content.
	KindList Kind = iota
	// KindDetail resources are fetched once and unwrapped from data.
	KindDetail
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "detail"
}

// Ident names the runtime identifier substituted into a path template.
type Ident string

const (
	IdentNone     Ident = ""
	IdentCoin     Ident = "coin"
	IdentExchange Ident = "exchange"
	IdentInvestor Ident = "investor"
	IdentID       Ident = "id"
)

// QueryParam describes one query parameter. Names must match the remote API
// exactly.
type QueryParam struct {
	Name     string
	Required bool
	// Default supplies a value when none is given.
	Default func(now time.Time) string
	// Normalize validates and rewrites a given value.
	Normalize func(string) (string, error)
}

// Resource is one snapshot-able DropsTab endpoint.
type Resource struct {
	Key string
	// Path is the path template relative to the API base; it is also
	// recorded as the envelope endpoint.
	Path  string
	Kind  Kind
	Ident Ident
	// File is the filename resource part. Resources without an identifier
	// use Qualifier as the filename qualifier.
	File      string
	Qualifier string
	Query     []QueryParam
	// WrapList wraps a non-array detail result into a one-element array.
	WrapList bool
}

// Args carries the runtime identifiers and query parameter values.
type Args struct {
	Coin     string
	Exchange string
	Investor string
	ID       string
	// Query holds query parameter values keyed by API parameter name.
	Query map[string]string
}

func (a Args) ident(id Ident) string {
	switch id {
	case IdentCoin:
		return a.Coin
	case IdentExchange:
		return a.Exchange
	case IdentInvestor:
		return a.Investor
	case IdentID:
		return a.ID
	default:
		return ""
	}
}

// Request is a resource resolved against Args.
type Request struct {
	Resource   Resource
	Path       string
	PathParams map[string]string
	Query      url.Values
	// Qualifier is the filename qualifier: the identifier value, or the
	// resource's fixed qualifier.
	Qualifier string
}

// UsageError reports missing or invalid caller input.
type UsageError struct {
	Resource string
	Msg      string
}

func (e *UsageError) Error() string {
	return e.Resource + ": " + e.Msg
}

// Placeholder returns the {name} in the path template, or "" if none.
func (r Resource) Placeholder() string {
	start := strings.Index(r.Path, "{")
	if start < 0 {
		return ""
	}
	end := strings.Index(r.Path[start:], "}")
	if end < 0 {
		return ""
	}
	return r.Path[start+1 : start+end]
}

// Resolve substitutes the identifier and builds the query for args. now is
// used for time-based defaults.
func (r Resource) Resolve(args Args, now time.Time) (*Request, error) {
	req := &Request{
		Resource:  r,
		Path:      r.Path,
		Query:     url.Values{},
		Qualifier: r.Qualifier,
	}

	if r.Ident != IdentNone {
		value := strings.TrimSpace(args.ident(r.Ident))
		if value == "" {
			return nil, &UsageError{Resource: r.Key, Msg: fmt.Sprintf("-%s is required", r.Ident)}
		}
		name := r.Placeholder()
		req.Path = strings.Replace(r.Path, "{"+name+"}", url.PathEscape(value), 1)
		req.PathParams = map[string]string{name: value}
		req.Qualifier = value
	}

	known := make(map[string]bool, len(r.Query))
	for _, p := range r.Query {
		known[p.Name] = true

		value := strings.TrimSpace(args.Query[p.Name])
		if value == "" && p.Default != nil {
			value = p.Default(now)
		}
		if value == "" {
			if p.Required {
				return nil, &UsageError{Resource: r.Key, Msg: fmt.Sprintf("query parameter %s is required", p.Name)}
			}
			continue
		}
		if p.Normalize != nil {
			v, err := p.Normalize(value)
			if err != nil {
				return nil, &UsageError{Resource: r.Key, Msg: fmt.Sprintf("%s: %v", p.Name, err)}
			}
			value = v
		}
		req.Query.Set(p.Name, value)
	}

	var unknown []string
	for name, v := range args.Query {
		if v != "" && !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UsageError{Resource: r.Key, Msg: "unsupported query parameters: " + strings.Join(unknown, ", ")}
	}

	return req, nil
}

// QueryMap flattens the request query for the envelope, or nil when empty.
func (r *Request) QueryMap() map[string]string {
	if len(r.Query) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Query))
	for k := range r.Query {
		out[k] = r.Query.Get(k)
	}
	return out
}
