package index

import (
	"reflect"
	"sync"
	"testing"
)

func TestNewGenreIndex(t *testing.T) {
	index := NewGenreIndex()
	if index == nil {
		t.Fatal("NewGenreIndex() returned nil")
	}
	if index.Count() != 0 {
		t.Errorf("NewGenreIndex() should start empty, got %v", index.Count())
	}
	if !index.GetLastReload().IsZero() {
		t.Error("GetLastReload() should be zero before the first update")
	}
}

func TestUpdateOverwrites(t *testing.T) {
	index := NewGenreIndex()
	index.Update("en-US", map[int]string{28: "Action", 35: "Comedy"})
	index.Update("de-DE", map[int]string{35: "Komödie"})

	if index.Count() != 1 {
		t.Errorf("Update() should overwrite, got %v genres want 1", index.Count())
	}
	if index.Name(28) != "" {
		t.Error("stale genre kept after update")
	}
	if index.Name(35) != "Komödie" || index.Locale() != "de-DE" {
		t.Errorf("Name(35) = %q, Locale() = %q", index.Name(35), index.Locale())
	}
	if index.GetLastReload().IsZero() {
		t.Error("GetLastReload() not set")
	}
}

func TestUpdateCopiesInput(t *testing.T) {
	index := NewGenreIndex()
	names := map[int]string{1: "Drama"}
	index.Update("en-US", names)
	names[1] = "changed"

	if index.Name(1) != "Drama" {
		t.Error("index shares the caller's map")
	}
}

func TestNamesAndAll(t *testing.T) {
	index := NewGenreIndex()
	index.Update("en-US", map[int]string{18: "Drama", 28: "Action", 99: "Documentary"})

	if got := index.Names([]int{99, 7, 28}); !reflect.DeepEqual(got, []string{"Documentary", "Action"}) {
		t.Errorf("Names() = %v", got)
	}

	want := []Genre{{ID: 28, Name: "Action"}, {ID: 99, Name: "Documentary"}, {ID: 18, Name: "Drama"}}
	if got := index.All(); !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewGenreIndex()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			index.Update("en-US", map[int]string{n: "Genre"})
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = index.Name(n)
			_ = index.All()
		}(i)
	}
	wg.Wait()

	if index.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after concurrent updates", index.Count())
	}
}
