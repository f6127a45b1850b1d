package records

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/estform/pkg/whttp"
)

const (
	DefaultEndpoint = "https://api.airtable.com/v0"
	DefaultLimit    = 10
	pageSize        = 100
)

// AirtableConfig configures an AirtableSource.
type AirtableConfig struct {
	Endpoint string
	BaseID   string
	TableID  string
	Token    string
	// Limit caps the records returned per search when the query has none.
	Limit int
	// Client is used as-is when set; otherwise one is built with RetryMax.
	Client   *retryablehttp.Client
	RetryMax int
}

// AirtableSource searches an Airtable-compatible REST table.
type AirtableSource struct {
	endpoint string
	base     string
	table    string
	token    string
	limit    int
	client   *retryablehttp.Client
}

// NewAirtable validates cfg and builds a source.
func NewAirtable(cfg AirtableConfig) (*AirtableSource, error) {
	if strings.TrimSpace(cfg.BaseID) == "" || strings.TrimSpace(cfg.TableID) == "" {
		return nil, errors.New("airtable source requires a base and a table (set records.base and records.table)")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	client := cfg.Client
	if client == nil {
		client = whttp.NewClient(cfg.RetryMax)
	}
	return &AirtableSource{
		endpoint: endpoint,
		base:     cfg.BaseID,
		table:    cfg.TableID,
		token:    cfg.Token,
		limit:    limit,
		client:   client,
	}, nil
}

// Search runs a filterByFormula query for q.
func (a *AirtableSource) Search(ctx context.Context, q Query) ([]Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = a.limit
	}
	params := url.Values{}
	params.Set("filterByFormula", Formula(q))
	params.Set("maxRecords", strconv.Itoa(limit))

	body, err := a.get(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseRecords(body), nil
}

// List pages through the whole table, handing each page to fn.
func (a *AirtableSource) List(ctx context.Context, fn func([]Record) error) error {
	offset := ""
	for {
		params := url.Values{}
		params.Set("pageSize", strconv.Itoa(pageSize))
		if offset != "" {
			params.Set("offset", offset)
		}
		body, err := a.get(ctx, params)
		if err != nil {
			return err
		}
		if err := fn(parseRecords(body)); err != nil {
			return err
		}
		offset = gjson.Get(body, "offset").String()
		if offset == "" {
			return nil
		}
	}
}

func (a *AirtableSource) get(ctx context.Context, params url.Values) (string, error) {
	u := a.endpoint + "/" + url.PathEscape(a.base) + "/" + url.PathEscape(a.table) + "?" + params.Encode()
	req := &whttp.Request{URL: u, Method: "GET"}
	if a.token != "" {
		req.Headers = append(req.Headers, whttp.Header{Name: "Authorization", Value: "Bearer " + a.token})
	}

	res, err := whttp.Send(ctx, req, a.client)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &StatusError{StatusCode: res.StatusCode, Body: gjson.Get(res.Body, "error.message").String()}
	}
	return res.Body, nil
}

func parseRecords(body string) []Record {
	var out []Record
	gjson.Get(body, "records").ForEach(func(_, rec gjson.Result) bool {
		r := Record{ID: rec.Get("id").String(), Fields: make(map[string]string)}
		rec.Get("fields").ForEach(func(name, value gjson.Result) bool {
			r.Fields[name.String()] = flatten(value)
			return true
		})
		out = append(out, r)
		return true
	})
	return out
}

// flatten renders linked and lookup fields (arrays) as a comma-joined list.
func flatten(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	var parts []string
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Formula builds the filterByFormula expression for q.
func Formula(q Query) string {
	field := "{" + strings.NewReplacer("{", "", "}", "").Replace(q.Field) + "}"
	text := quote(strings.TrimSpace(q.Text))
	if q.Match == Exact {
		return fmt.Sprintf("LOWER(TRIM(%s)) = LOWER(%s)", field, text)
	}
	return fmt.Sprintf("SEARCH(LOWER(%s), LOWER(%s))", text, field)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
