package sesame

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/tmarkert/skyquery/internal/votest"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
)

func newTestClient(s *votest.Server, opts ...Option) *Client {
	return New(s.URL()+"/sesame", cache.NewMemoryCache(), opts...)
}

func TestResolve(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	res, err := newTestClient(s).Resolve(context.Background(), "M 31", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.Canonical != "M 31" {
		t.Errorf("Canonical = %q, want %q", res.Canonical, "M 31")
	}
	if res.Resolver != "Simbad" {
		t.Errorf("Resolver = %q, want Simbad", res.Resolver)
	}
	if res.Otype != "G" {
		t.Errorf("Otype = %q, want G", res.Otype)
	}
	if math.Abs(res.Coord.RA.Degrees()-10.684708) > 1e-6 {
		t.Errorf("RA = %v, want 10.684708", res.Coord.RA.Degrees())
	}
	if math.Abs(res.Coord.Dec.Degrees()-41.268750) > 1e-6 {
		t.Errorf("Dec = %v, want 41.268750", res.Coord.Dec.Degrees())
	}
}

func TestResolveSpacingInsensitive(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	res, err := newTestClient(s).Resolve(context.Background(), "m31", false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Canonical != "M 31" {
		t.Errorf("Canonical = %q, want %q", res.Canonical, "M 31")
	}
	if res.Name != "m31" {
		t.Errorf("Name = %q, want the submitted form", res.Name)
	}
}

func TestResolveNotFound(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	_, err := newTestClient(s).Resolve(context.Background(), "Planet Krypton", false)
	if !stderrors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, errors.ErrCodeObjectNotFound) {
		t.Errorf("error %v should carry OBJECT_NOT_FOUND", err)
	}
}

func TestResolveValidation(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()
	ctx := context.Background()

	if _, err := newTestClient(s).Resolve(ctx, "", false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty name error = %v, want INVALID_INPUT", err)
	}
	if _, err := newTestClient(s, WithResolvers("XY")).Resolve(ctx, "Vega", false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad resolvers error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveCaching(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	c := newTestClient(s)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(ctx, "Sirius", false); err != nil {
			t.Fatalf("Resolve %d: %v", i, err)
		}
	}
	if got := s.Requests(); got != 1 {
		t.Errorf("requests = %d, want 1 (cache hits)", got)
	}

	if _, err := c.Resolve(ctx, "Sirius", true); err != nil {
		t.Fatalf("Resolve refresh: %v", err)
	}
	if got := s.Requests(); got != 2 {
		t.Errorf("requests = %d, want 2 after refresh", got)
	}
}

func TestResolveMissesNotCached(t *testing.T) {
	s := votest.NewServer()
	defer s.Close()

	c := newTestClient(s)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(ctx, "Planet Krypton", false); !stderrors.Is(err, ErrNotFound) {
			t.Fatalf("Resolve %d error = %v, want ErrNotFound", i, err)
		}
	}
	if got := s.Requests(); got != 2 {
		t.Errorf("requests = %d, want 2 (misses bypass the cache)", got)
	}
}
