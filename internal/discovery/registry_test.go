package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"itd/internal/suite"
)

func noop(*suite.T) {}

func TestDiscover_SortsByCompositeKey(t *testing.T) {
	decl := suite.Declare(
		suite.Class{Name: "B", Tests: []suite.Method{suite.Test("t1", noop)}},
		suite.Class{Name: "A", Tests: []suite.Method{
			suite.Test("t2", noop),
			suite.Test("t1", noop).Described("first of A"),
		}},
	)

	reg := Discover(decl)

	if diff := cmp.Diff([]string{"A_t1", "A_t2", "B_t1"}, reg.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != 3 {
		t.Errorf("expected 3 tests, got %d", reg.Len())
	}

	first, ok := reg.At(0)
	if !ok {
		t.Fatal("expected entry at index 0")
	}
	if first.Class.Name != "A" || first.Method.Name != "t1" {
		t.Errorf("unexpected first entry: %s", first.Key)
	}
	if got := first.TestCase().String(); got != "first of A - A_t1" {
		t.Errorf("unexpected list line %q", got)
	}
}

func TestDiscover_ByteOrder(t *testing.T) {
	// Upper case sorts before lower case and '.' before letters.
	decl := suite.Declare(
		suite.Class{Name: "pkg.b", Tests: []suite.Method{suite.Test("x", noop)}},
		suite.Class{Name: "pkg.B", Tests: []suite.Method{suite.Test("x", noop)}},
		suite.Class{Name: "pkg.B.c", Tests: []suite.Method{suite.Test("x", noop)}},
	)

	want := []string{"pkg.B.c_x", "pkg.B_x", "pkg.b_x"}
	if diff := cmp.Diff(want, Discover(decl).Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_CollisionLaterWins(t *testing.T) {
	decl := suite.Declare(
		suite.Class{Name: "A", Tests: []suite.Method{suite.Test("t1", noop).Described("old")}},
		suite.Class{Name: "A", Tests: []suite.Method{suite.Test("t1", noop).Described("new")}},
	)

	reg := Discover(decl)

	if reg.Len() != 1 {
		t.Fatalf("expected 1 test after collision, got %d", reg.Len())
	}
	entry, _ := reg.At(0)
	if entry.Method.Description != "new" {
		t.Errorf("expected later registration to win, got %q", entry.Method.Description)
	}
	if diff := cmp.Diff([]string{"A_t1"}, reg.Collisions()); diff != "" {
		t.Errorf("collisions mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_EdgeCases(t *testing.T) {
	t.Run("empty declaration", func(t *testing.T) {
		reg := Discover(suite.Declaration{})
		if reg.Len() != 0 {
			t.Errorf("expected empty registry, got %d", reg.Len())
		}
		if _, ok := reg.At(0); ok {
			t.Error("expected no entry at index 0")
		}
	})

	t.Run("out of range indexes", func(t *testing.T) {
		reg := Discover(suite.Declare(suite.Class{Name: "A", Tests: []suite.Method{suite.Test("t1", noop)}}))
		for _, i := range []int{-1, 1, 100} {
			if _, ok := reg.At(i); ok {
				t.Errorf("expected no entry at index %d", i)
			}
		}
	})

	t.Run("entries are copies", func(t *testing.T) {
		reg := Discover(suite.Declare(suite.Class{Name: "A", Tests: []suite.Method{suite.Test("t1", noop)}}))
		entries := reg.Entries()
		entries[0].Key = "mutated"
		if got, _ := reg.At(0); got.Key != "A_t1" {
			t.Errorf("registry was mutated through Entries: %s", got.Key)
		}
	})

	t.Run("stable across calls", func(t *testing.T) {
		decl := suite.Declare(
			suite.Class{Name: "Z", Tests: []suite.Method{suite.Test("a", noop), suite.Test("b", noop)}},
			suite.Class{Name: "M", Tests: []suite.Method{suite.Test("c", noop)}},
		)
		first := Discover(decl).Keys()
		for i := 0; i < 10; i++ {
			if diff := cmp.Diff(first, Discover(decl).Keys()); diff != "" {
				t.Fatalf("order changed between runs:\n%s", diff)
			}
		}
	})
}
