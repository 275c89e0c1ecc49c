package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/obfdofus/abcdeob/internal/evalstack"
	"github.com/obfdofus/abcdeob/internal/recognize"
)

func TestHashMovieDeterministic(t *testing.T) {
	a := HashMovie([]byte("hello"))
	b := HashMovie([]byte("hello"))
	if a != b {
		t.Fatalf("HashMovie not deterministic: %q != %q", a, b)
	}
	c := HashMovie([]byte("world"))
	if a == c {
		t.Fatalf("HashMovie collided for distinct inputs")
	}
}

func TestStorePutLookupRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	hash := HashMovie([]byte("some movie bytes"))
	want := recognize.Result{
		StaticClasses: []recognize.StaticClass{
			{ClassIndex: 12, Values: map[string]evalstack.Value{"FOO": {Kind: evalstack.KindDouble, Double: 2.5}}},
		},
		Wrappers: []recognize.WrapperClass{
			{ClassIndex: 7, Forward: map[string]int{"m": 9}},
		},
		Dispatchers: []recognize.PacketDispatcher{
			{ClassIndex: 3, Method: 4},
		},
	}

	ctx := context.Background()
	if _, ok, err := store.Lookup(ctx, hash); err != nil {
		t.Fatalf("Lookup before Put: %v", err)
	} else if ok {
		t.Fatalf("Lookup before Put: unexpectedly found an entry")
	}

	if err := store.Put(ctx, hash, want, 1000); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Lookup(ctx, hash)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatalf("Lookup: expected a cached verdict")
	}
	if len(got.StaticClasses) != 1 || got.StaticClasses[0].ClassIndex != 12 {
		t.Fatalf("StaticClasses round-trip mismatch: %+v", got.StaticClasses)
	}
	if got.StaticClasses[0].Values["FOO"].Double != 2.5 {
		t.Fatalf("static value round-trip mismatch: %+v", got.StaticClasses[0].Values)
	}
	if len(got.Wrappers) != 1 || got.Wrappers[0].Forward["m"] != 9 {
		t.Fatalf("Wrappers round-trip mismatch: %+v", got.Wrappers)
	}
	if len(got.Dispatchers) != 1 || got.Dispatchers[0].Method != 4 {
		t.Fatalf("Dispatchers round-trip mismatch: %+v", got.Dispatchers)
	}

	// A second Put for the same hash replaces rather than duplicates.
	want.Dispatchers[0].Method = 5
	if err := store.Put(ctx, hash, want, 2000); err != nil {
		t.Fatalf("Put (overwrite): %v", err)
	}
	got2, ok, err := store.Lookup(ctx, hash)
	if err != nil || !ok {
		t.Fatalf("Lookup after overwrite: ok=%v err=%v", ok, err)
	}
	if got2.Dispatchers[0].Method != 5 {
		t.Fatalf("overwrite did not take effect: %+v", got2.Dispatchers)
	}
}
