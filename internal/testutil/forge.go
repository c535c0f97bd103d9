// Package testutil provides a fake code forge for tests that exercise the
// resolver and downloader end to end without network access.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Forge serves GitHub API JSON and archive files from one httptest server.
// Requests for any host are routed to it by the client from Client.
type Forge struct {
	mu       sync.Mutex
	json     map[string]any
	files    map[string][]byte
	requests []string
	headers  map[string]http.Header
	server   *httptest.Server
}

// NewForge starts a Forge that is closed when t finishes.
func NewForge(t testing.TB) *Forge {
	t.Helper()
	f := &Forge{json: map[string]any{}, files: map[string][]byte{}, headers: map[string]http.Header{}}
	f.server = httptest.NewServer(f)
	t.Cleanup(f.server.Close)
	return f
}

// Release registers a GitHub release object at the given API path, for
// example "/repos/acme/widget/releases/latest".
func (f *Forge) Release(path, tag string, assetURLs ...string) {
	assets := make([]map[string]string, 0, len(assetURLs))
	for _, u := range assetURLs {
		assets = append(assets, map[string]string{"browser_download_url": u})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json[path] = map[string]any{"tag_name": tag, "assets": assets}
}

// File serves content at the path of rawURL for HEAD and GET.
func (f *Forge) File(rawURL string, content []byte) {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[u.Path] = content
}

// Requests returns "METHOD /path" for every request seen so far.
func (f *Forge) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Header returns the headers of the last "METHOD /path" request, or nil.
func (f *Forge) Header(request string) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[request]
}

// Client returns an HTTP client that sends every request to the forge.
func (f *Forge) Client() *http.Client {
	return RoutedClient(f.server.URL)
}

// RoutedClient returns an HTTP client that sends every request to serverURL,
// keeping the original path and query.
func RoutedClient(serverURL string) *http.Client {
	target, err := url.Parse(serverURL)
	if err != nil {
		panic(err)
	}
	return &http.Client{Transport: &rewriteTransport{target: target, base: http.DefaultTransport}}
}

func (f *Forge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	request := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, request)
	f.headers[request] = r.Header.Clone()
	body, isJSON := f.json[r.URL.Path]
	content, isFile := f.files[r.URL.Path]
	f.mu.Unlock()

	switch {
	case isJSON && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	case isFile:
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(content)
		}
	default:
		http.NotFound(w, r)
	}
}

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.base.RoundTrip(r)
}
