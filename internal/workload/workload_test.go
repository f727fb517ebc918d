package workload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/user/cachebench/pkg/client"
)

func TestNewKeyPool(t *testing.T) {
	keys := NewKeyPool(3)
	want := []string{"key0", "key1", "key2"}
	if len(keys) != len(want) {
		t.Fatalf("pool size = %d, want %d", len(keys), len(want))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestGeneratorRequiresKeys(t *testing.T) {
	s, _ := NewSampler(DefaultMix())
	if _, err := NewGenerator(nil, "c", nil, s, 0); err == nil {
		t.Fatal("expected error for empty key pool")
	}
}

func TestGeneratorKeysStayInPool(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if len(parts) == 3 {
			mu.Lock()
			seen[parts[2]] = true
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	keys := NewKeyPool(5)
	pool := map[string]bool{}
	for _, k := range keys {
		pool[k] = true
	}

	sampler, _ := NewSampler(DefaultMix())
	gen, err := NewGenerator(client.New(ts.URL), "test_cache", keys, sampler, 10000)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for range 200 {
		if _, err := gen.Operation(context.Background()); err != nil {
			t.Fatalf("Operation: %v", err)
		}
	}

	for k := range seen {
		if !pool[k] {
			t.Errorf("request used key %q outside the pool", k)
		}
	}
	if len(seen) == 0 {
		t.Fatal("no keys observed")
	}
}

func TestGeneratorPutValueShape(t *testing.T) {
	valueRe := regexp.MustCompile(`^value_\d+$`)
	var mu sync.Mutex
	var values []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			values = append(values, string(b))
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sampler, _ := NewSampler([]Weighted{{Op: OpPut, Weight: 1}})
	gen, err := NewGenerator(client.New(ts.URL), "test_cache", NewKeyPool(2), sampler, 10000)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for range 50 {
		if _, err := gen.Operation(context.Background()); err != nil {
			t.Fatalf("Operation: %v", err)
		}
	}

	if len(values) != 50 {
		t.Fatalf("got %d PUT bodies, want 50", len(values))
	}
	for _, v := range values {
		if !valueRe.MatchString(v) {
			t.Errorf("PUT value %q does not match value_<n>", v)
		}
	}
}

func TestGeneratorRepeatedDelete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing keys still answer OK; repeated deletes are harmless.
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sampler, _ := NewSampler([]Weighted{{Op: OpDelete, Weight: 1}})
	gen, err := NewGenerator(client.New(ts.URL), "test_cache", []string{"key0"}, sampler, 0)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for range 20 {
		res, err := gen.Operation(context.Background())
		if err != nil {
			t.Fatalf("Operation: %v", err)
		}
		if res.Op != OpDelete || res.Key != "key0" {
			t.Fatalf("unexpected result %+v", res)
		}
	}
}
