package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jknair0/beforeeach"
)

var (
	fs  *FileStore
	ctx context.Context
)

func setUp() {
	ctx = context.Background()
}

func tearDown() {}

var it = beforeeach.Create(setUp, tearDown)

func TestFileStoreRoundTrip(t *testing.T) {
	it(func() {
		fs = NewFileStore(filepath.Join(t.TempDir(), "spotit.json"))

		testCases := []struct {
			name  string
			key   string
			value string
		}{
			{name: "Token key", key: "userToken", value: "tok1"},
			{name: "JSON value", key: "user", value: `{"id":1,"name":"A"}`},
			{name: "Numeric string", key: "userPoints", value: "150"},
		}

		for _, testCase := range testCases {
			if err := fs.Set(ctx, testCase.key, testCase.value); err != nil {
				t.Errorf("%s, Set: unexpected error %v", testCase.name, err)
			}
			got, err := fs.Get(ctx, testCase.key)
			if err != nil {
				t.Errorf("%s, Get: unexpected error %v", testCase.name, err)
			}
			if got != testCase.value {
				t.Errorf("%s, Get: expected %q, got %q", testCase.name, testCase.value, got)
			}
		}
	})
}

func TestFileStoreMissingKey(t *testing.T) {
	it(func() {
		fs = NewFileStore(filepath.Join(t.TempDir(), "spotit.json"))

		if _, err := fs.Get(ctx, "userToken"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get on empty store: expected ErrNotFound, got %v", err)
		}
	})
}

func TestFileStoreRemove(t *testing.T) {
	it(func() {
		fs = NewFileStore(filepath.Join(t.TempDir(), "spotit.json"))

		if err := fs.Set(ctx, "user", "{}"); err != nil {
			t.Fatalf("Set: unexpected error %v", err)
		}
		if err := fs.Remove(ctx, "user"); err != nil {
			t.Errorf("Remove: unexpected error %v", err)
		}
		if _, err := fs.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after Remove: expected ErrNotFound, got %v", err)
		}
		// Removing an absent key is not an error.
		if err := fs.Remove(ctx, "user"); err != nil {
			t.Errorf("Remove absent key: unexpected error %v", err)
		}
	})
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	it(func() {
		path := filepath.Join(t.TempDir(), "spotit.json")

		first := NewFileStore(path)
		if err := first.Set(ctx, "userPoints", "500"); err != nil {
			t.Fatalf("Set: unexpected error %v", err)
		}

		second := NewFileStore(path)
		got, err := second.Get(ctx, "userPoints")
		if err != nil {
			t.Fatalf("Get from new instance: unexpected error %v", err)
		}
		if got != "500" {
			t.Errorf("Get from new instance: expected %q, got %q", "500", got)
		}
	})
}
