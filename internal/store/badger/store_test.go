package badger

import (
	"context"
	"testing"

	"github.com/tofixx/mymovieflip/internal/store"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if _, ok, err := s.Get(ctx, store.KeyProfile); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Set(ctx, store.KeyProfile, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := s.Get(ctx, store.KeyProfile)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if string(got) != `{"version":1}` {
		t.Errorf("Get() = %q", got)
	}

	if err := s.Set(ctx, store.KeyProfile, []byte(`{"version":1,"flips":2}`)); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}
	got, _, _ = s.Get(ctx, store.KeyProfile)
	if string(got) != `{"version":1,"flips":2}` {
		t.Errorf("Get() after overwrite = %q", got)
	}

	if err := s.Remove(ctx, store.KeyProfile); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(ctx, store.KeyProfile); err != nil {
		t.Errorf("Remove() of missing key error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, store.KeyProfile); ok {
		t.Error("key still present after Remove()")
	}
}

func TestPingAfterClose(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on open store = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close() should fail")
	}
}

var _ store.Store = (*Store)(nil)
