package storage

import (
	"errors"
	"testing"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	if err := db.Put([]byte("alpha"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("alpha"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "1" {
		t.Fatalf("unexpected value %q", got)
	}
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := db.Delete([]byte("alpha")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := db.Has([]byte("alpha"))
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if ok {
		t.Fatalf("key should be gone after delete")
	}
}

func TestMemDBIteratePrefixOrdered(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	entries := map[string]string{
		"p/c": "3",
		"p/a": "1",
		"p/b": "2",
		"q/a": "other",
	}
	for k, v := range entries {
		if err := db.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	var keys []string
	err := db.IteratePrefix([]byte("p/"), nil, func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	want := []string{"p/a", "p/b", "p/c"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestMemDBIteratePrefixStartExclusive(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	for _, k := range []string{"p/a", "p/b", "p/c"} {
		if err := db.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	var keys []string
	err := db.IteratePrefix([]byte("p/"), []byte("p/a"), func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(keys) != 2 || keys[0] != "p/b" || keys[1] != "p/c" {
		t.Fatalf("start bound not exclusive: %v", keys)
	}
}

func TestMemDBIterateEarlyStop(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	for _, k := range []string{"p/a", "p/b", "p/c"} {
		if err := db.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	count := 0
	err := db.IteratePrefix([]byte("p/"), nil, func(_, _ []byte) (bool, error) {
		count++
		return count < 2, nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected early stop after 2, visited %d", count)
	}
}
