package store

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hatchpm/hatch/internal/config"
	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
)

// indexCacheEntry is what RemoteHTTPIndexedStore keeps in the shared LRU
// cache: a fully parsed index plus when it was fetched, so freshness can be
// judged against the configured TTL independent of cache eviction order.
type indexCacheEntry struct {
	records   map[string]egg.Record
	fetchedAt time.Time
}

// RemoteHTTPIndexedStore fetches a compressed index over HTTP on Connect
// and caches the parsed result for the session. Multiple stores sharing one
// *lru.Cache (typically one per facade process) reuse each other's fetch
// within config.GetIndexCacheTTL, keyed by base URL.
type RemoteHTTPIndexedStore struct {
	baseURL string
	client  *http.Client
	cache   *lru.Cache // shared across stores; may be nil to disable caching
	ttl     time.Duration

	creds   Credentials
	records map[string]egg.Record
}

// NewRemoteHTTPIndexedStore returns a store for baseURL. cache may be nil,
// in which case every Connect call re-fetches.
func NewRemoteHTTPIndexedStore(baseURL string, client *http.Client, cache *lru.Cache) *RemoteHTTPIndexedStore {
	return &RemoteHTTPIndexedStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		cache:   cache,
		ttl:     config.GetIndexCacheTTL(),
	}
}

func (s *RemoteHTTPIndexedStore) Name() string { return "remote-http:" + s.baseURL }

func (s *RemoteHTTPIndexedStore) Connect(ctx context.Context, creds Credentials) error {
	s.creds = creds

	if cached, ok := s.fromCache(); ok {
		s.records = cached
		return nil
	}

	data, err := s.fetchIndex(ctx)
	if err != nil {
		return &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}
	records, err := ParseIndexText(string(data))
	if err != nil {
		return &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}

	s.records = records
	s.toCache(records)
	return nil
}

func (s *RemoteHTTPIndexedStore) fromCache() (map[string]egg.Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(s.baseURL)
	if !ok {
		return nil, false
	}
	entry := v.(*indexCacheEntry)
	if time.Since(entry.fetchedAt) > s.ttl {
		return nil, false
	}
	return entry.records, true
}

func (s *RemoteHTTPIndexedStore) toCache(records map[string]egg.Record) {
	if s.cache == nil {
		return
	}
	s.cache.Add(s.baseURL, &indexCacheEntry{records: records, fetchedAt: time.Now()})
}

func (s *RemoteHTTPIndexedStore) fetchIndex(ctx context.Context) ([]byte, error) {
	body, err := s.get(ctx, s.baseURL+"/index-depend.bz2")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(bzip2.NewReader(body))
}

func (s *RemoteHTTPIndexedStore) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.creds.Username != "" || s.creds.Password != "" {
		req.SetBasicAuth(s.creds.Username, s.creds.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *RemoteHTTPIndexedStore) Query(_ context.Context, f Filter) ([]Entry, error) {
	return sortedEntries(s.records, f), nil
}

func (s *RemoteHTTPIndexedStore) GetMetadata(_ context.Context, key string) (egg.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return egg.Record{}, &herrors.KeyNotFound{Key: key}
	}
	return rec, nil
}

func (s *RemoteHTTPIndexedStore) GetData(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, ok := s.records[key]; !ok {
		return nil, &herrors.KeyNotFound{Key: key}
	}
	body, err := s.get(ctx, s.baseURL+"/"+key)
	if err != nil {
		return nil, &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}
	return body, nil
}

func (s *RemoteHTTPIndexedStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.records[key]
	return ok, nil
}
