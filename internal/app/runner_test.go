package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/jsonfetch/internal/config"
	"github.com/samvad-hq/jsonfetch/internal/storage"
	"github.com/samvad-hq/jsonfetch/pkg/endpoints"
	"github.com/samvad-hq/jsonfetch/pkg/fetcher"
	"github.com/samvad-hq/jsonfetch/pkg/httpclient"
	"github.com/samvad-hq/jsonfetch/pkg/sinks"
)

type stubResponse struct {
	body   []byte
	status int
}

func (s stubResponse) Body() []byte        { return s.body }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) Header() http.Header { return http.Header{} }

// routeClient answers by URL and records every request.
type routeClient struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]error
	calls  []string
}

func (c *routeClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, url)
	c.mu.Unlock()
	if err := c.fail[url]; err != nil {
		return nil, err
	}
	return stubResponse{body: []byte(c.bodies[url]), status: http.StatusOK}, nil
}

// recordingSink captures delivered documents.
type recordingSink struct {
	docs []sinks.Document
	err  error
}

func (s *recordingSink) ID() string { return "recorder" }
func (s *recordingSink) Send(_ context.Context, doc sinks.Document) error {
	s.docs = append(s.docs, doc)
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{AppName: "jsonfetch", StorageType: "none"}
}

func liveBodies() map[string]string {
	return map[string]string{
		endpoints.DogBreedsURL: `{"message":{"hound":["afghan"]},"status":"success"}`,
		endpoints.CatFactsURL:  `[{"text":"Cats sleep a lot.","type":"cat"}]`,
		endpoints.HTTPBinURL:   `{"args":{},"url":"https://httpbin.org/get"}`,
	}
}

func TestRunPrintsThreeDocumentsInOrder(t *testing.T) {
	client := &routeClient{bodies: liveBodies()}
	runner, err := NewRunner(context.Background(), testConfig(), nil, WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var out bytes.Buffer
	if err := runner.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{endpoints.DogBreedsURL, endpoints.CatFactsURL, endpoints.HTTPBinURL}
	if strings.Join(client.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected call order %v", client.calls)
	}

	dec := json.NewDecoder(&out)
	var docs []any
	for dec.More() {
		var v any
		if err := dec.Decode(&v); err != nil {
			t.Fatalf("decode printed document: %v", err)
		}
		docs = append(docs, v)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 printed documents, got %d", len(docs))
	}
	if docs[0].(map[string]any)["status"] != "success" {
		t.Fatalf("first block should be the dog listing, got %#v", docs[0])
	}
	if _, ok := docs[1].([]any); !ok {
		t.Fatalf("second block should be the cat facts array, got %#v", docs[1])
	}
	if docs[2].(map[string]any)["url"] != "https://httpbin.org/get" {
		t.Fatalf("third block should be the httpbin echo, got %#v", docs[2])
	}
}

func TestRunAbortsOnFirstFailureWithoutOutput(t *testing.T) {
	client := &routeClient{
		bodies: liveBodies(),
		fail:   map[string]error{endpoints.DogBreedsURL: errors.New("connection refused")},
	}
	runner, err := NewRunner(context.Background(), testConfig(), nil, WithHTTPClient(client))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var out bytes.Buffer
	err = runner.Run(context.Background(), &out)
	if !errors.Is(err, fetcher.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "dog-breeds") {
		t.Fatalf("expected endpoint id in %q", err.Error())
	}
	if len(client.calls) != 1 {
		t.Fatalf("cat facts and httpbin must not be contacted, calls=%v", client.calls)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}

func TestRunDiscardsEarlierDocumentsWhenLaterFetchFails(t *testing.T) {
	bodies := liveBodies()
	bodies[endpoints.HTTPBinURL] = "<html><title>502 Bad Gateway</title></html>"
	client := &routeClient{bodies: bodies}
	sink := &recordingSink{}
	runner, err := NewRunner(context.Background(), testConfig(), nil,
		WithHTTPClient(client),
		WithSinks(sinks.NewSet(sink)),
	)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var out bytes.Buffer
	err = runner.Run(context.Background(), &out)
	if !errors.Is(err, fetcher.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no partial output, got %q", out.String())
	}
	if len(sink.docs) != 0 {
		t.Fatalf("nothing should be delivered on failure, got %d documents", len(sink.docs))
	}
}

func TestRunAgainstHTTPServers(t *testing.T) {
	var hits []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/dog":
			_, _ = w.Write([]byte(`{"status":"success"}`))
		case "/cat":
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`{"url":"echo"}`))
		}
	}))
	defer srv.Close()

	runner, err := NewRunner(context.Background(), testConfig(), nil, WithEndpoints([]endpoints.Endpoint{
		{ID: "dog", URL: srv.URL + "/dog"},
		{ID: "cat", URL: srv.URL + "/cat"},
		{ID: "echo", URL: srv.URL + "/echo"},
	}))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var out bytes.Buffer
	if err := runner.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "{\n  \"status\": \"success\"\n}\n[]\n{\n  \"url\": \"echo\"\n}\n"
	if out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}
	if strings.Join(hits, ",") != "/dog,/cat,/echo" {
		t.Fatalf("unexpected request order %v", hits)
	}
}

func TestRunStrictStatusFailsOnErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.StrictStatus = true
	runner, err := NewRunner(context.Background(), cfg, nil, WithEndpoints([]endpoints.Endpoint{{ID: "x", URL: srv.URL}}))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.Run(context.Background(), &bytes.Buffer{}); !errors.Is(err, fetcher.ErrStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRunArchivesAndDeliversDocuments(t *testing.T) {
	cfg := testConfig()
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(t.TempDir(), "snapshots.db")

	sink := &recordingSink{}
	for i := 0; i < 2; i++ {
		runner, err := NewRunner(context.Background(), cfg, nil,
			WithHTTPClient(&routeClient{bodies: liveBodies()}),
			WithSinks(sinks.NewSet(sink)),
		)
		if err != nil {
			t.Fatalf("NewRunner run %d: %v", i, err)
		}
		if err := runner.Run(context.Background(), &bytes.Buffer{}); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	if len(sink.docs) != 6 {
		t.Fatalf("expected 6 delivered documents over two runs, got %d", len(sink.docs))
	}
	if sink.docs[0].EndpointID != endpoints.DogBreeds.ID || sink.docs[2].EndpointID != endpoints.HTTPBin.ID {
		t.Fatalf("documents out of order: %+v", sink.docs[:3])
	}
	cat := sink.docs[1]
	if string(cat.Body) != liveBodies()[endpoints.CatFactsURL] || cat.Digest != digestBody(cat.Body) {
		t.Fatalf("sinks should get the raw document and its digest, got %+v", cat)
	}

	store, err := storage.NewStore("bbolt", cfg.BBoltPath, storage.Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	snap, found, err := store.Previous(endpoints.CatFacts.ID)
	if err != nil || !found {
		t.Fatalf("expected archived cat facts snapshot, found=%v err=%v", found, err)
	}
	if string(snap.Body) != liveBodies()[endpoints.CatFactsURL] || snap.Digest != digestBody(snap.Body) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRunIgnoresSinkFailures(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	runner, err := NewRunner(context.Background(), testConfig(), nil,
		WithHTTPClient(&routeClient{bodies: liveBodies()}),
		WithSinks(sinks.NewSet(sink)),
	)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	var out bytes.Buffer
	if err := runner.Run(context.Background(), &out); err != nil {
		t.Fatalf("sink failure must not fail the run: %v", err)
	}
	if out.Len() == 0 {
		t.Fatalf("expected documents on stdout")
	}
}

func TestNewRunnerValidatesInputs(t *testing.T) {
	if _, err := NewRunner(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := testConfig()
	cfg.StorageType = "postgres"
	if _, err := NewRunner(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported storage")
	}

	cfg = testConfig()
	cfg.SinksFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewRunner(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing sinks file")
	}
}
