// Package kvtest holds behavioural checks shared by every kv.Store backend.
package kvtest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/aboucelia/chatapp/internal/kv"
)

// Run exercises a Store implementation. newStore must return a fresh, empty
// store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		_, ok, err := s.Get(ctx, "nope")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("Get(nope) ok = true, want false")
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		if err := s.Set(ctx, "k", "v1"); err != nil {
			t.Fatal(err)
		}
		if err := s.Set(ctx, "k", "v2"); err != nil {
			t.Fatal(err)
		}
		v, ok, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != "v2" {
			t.Errorf("Get(k) = %q, %v; want v2, true", v, ok)
		}
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		if err := s.Set(ctx, "empty", ""); err != nil {
			t.Fatal(err)
		}
		_, ok, err := s.Get(ctx, "empty")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("key with empty value reported absent")
		}
	})

	t.Run("keys and remove", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		for _, k := range []string{"b", "a", "c"} {
			if err := s.Set(ctx, k, k); err != nil {
				t.Fatal(err)
			}
		}
		keys, err := s.Keys(ctx)
		if err != nil {
			t.Fatal(err)
		}
		slices.Sort(keys)
		if !slices.Equal(keys, []string{"a", "b", "c"}) {
			t.Errorf("Keys() = %v, want [a b c]", keys)
		}

		if err := s.Remove(ctx, "a", "c", "missing"); err != nil {
			t.Fatal(err)
		}
		keys, err = s.Keys(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(keys, []string{"b"}) {
			t.Errorf("Keys() after Remove = %v, want [b]", keys)
		}
	})

	t.Run("remove nothing", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		if err := s.Remove(ctx); err != nil {
			t.Errorf("Remove() with no keys error = %v", err)
		}
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if err := s.Set(ctx, "k", "v"); !errors.Is(err, kv.ErrClosed) {
			t.Errorf("Set after Close error = %v, want ErrClosed", err)
		}
	})
}
