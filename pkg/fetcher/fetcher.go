// Package fetcher retrieves a URL and decodes the response body as a single JSON value.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/samvad-hq/jsonfetch/pkg/httpclient"
)

var (
	errEmptyBody    = errors.New("empty body")
	errTrailingData = errors.New("unexpected data after top-level JSON value")
)

// Options controls optional fetch behaviour. The zero value parses any response regardless of status.
type Options struct {
	// StrictStatus rejects non-2xx responses before attempting to parse them.
	StrictStatus bool
}

// Result is the full outcome of one fetch.
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
	// Value is nil, bool, json.Number, string, []any or map[string]any.
	Value any
}

// Fetcher issues GET requests through a shared client. It holds no mutable
// state and is safe for concurrent use.
type Fetcher struct {
	client httpclient.Client
	opts   Options
}

// New returns a Fetcher bound to client.
func New(client httpclient.Client, opts Options) *Fetcher {
	return &Fetcher{client: client, opts: opts}
}

// FetchJSON performs a GET on url and returns the body parsed as JSON.
func FetchJSON(ctx context.Context, client httpclient.Client, url string) (any, error) {
	res, err := New(client, Options{}).Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Fetch performs a GET on url, reads the full body and parses it as one JSON value.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	if f == nil || f.client == nil {
		return Result{}, newTransportError(url, errors.New("http client is not configured"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := f.client.Get(ctx, url, nil)
	if err != nil {
		return Result{}, newTransportError(url, err)
	}

	status := resp.StatusCode()
	body := resp.Body()
	if f.opts.StrictStatus && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
		return Result{}, newStatusError(url, status, fmt.Errorf("body: %s", responseSnippet(body)))
	}

	value, err := decode(body)
	if err != nil {
		if title, ok := htmlTitle(resp.Header().Get("Content-Type"), body); ok {
			err = fmt.Errorf("body is an HTML page titled %q: %w", title, err)
		}
		return Result{}, newParseError(url, status, err)
	}

	return Result{
		URL:        url,
		StatusCode: status,
		Body:       body,
		Value:      value,
	}, nil
}

// decode parses exactly one JSON value; numbers keep their source text.
func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyBody
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return v, nil
}
