package client

import "testing"

func TestWorldStore_EmptyBeforeFirstReplace(t *testing.T) {
	s := NewWorldStore()
	got := s.Read()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil state, got %v", got)
	}
	if s.Stale() {
		t.Fatalf("new store must not be stale")
	}
}

func TestWorldStore_ReplaceIsIdempotent(t *testing.T) {
	s := NewWorldStore()
	next := state("u1", `{"hp":7}`, "u2", `{"hp":10}`)

	s.ReplaceAll(next)
	first := s.Read()
	s.ReplaceAll(next)
	second := s.Read()

	if !first.Equal(second) || !second.Equal(next) {
		t.Fatalf("replace not idempotent: %v vs %v", first, second)
	}
}

func TestWorldStore_CopiesAreIsolated(t *testing.T) {
	s := NewWorldStore()
	next := state("u1", `{"hp":7}`)
	s.ReplaceAll(next)

	next["u2"] = PlayerRecord(`{}`)
	next["u1"][0] = '['

	read := s.Read()
	read["u3"] = PlayerRecord(`{}`)

	if got := s.Read(); !got.Equal(state("u1", `{"hp":7}`)) {
		t.Fatalf("store shares memory with callers: %v", got)
	}
}

func TestWorldStore_SubscribeAndCancel(t *testing.T) {
	s := NewWorldStore()
	var seen []WorldState
	cancel := s.Subscribe(func(w WorldState) { seen = append(seen, w) })

	s.ReplaceAll(state("u1", `1`))
	cancel()
	cancel()
	s.ReplaceAll(state("u2", `2`))

	if len(seen) != 1 || !seen[0].Equal(state("u1", `1`)) {
		t.Fatalf("subscriber saw %v", seen)
	}
	if s.Version() != 2 {
		t.Fatalf("version: got %d", s.Version())
	}
}

func TestWorldStore_ReplaceClearsStale(t *testing.T) {
	s := NewWorldStore()
	s.ReplaceAll(state("u1", `1`))
	s.MarkStale()
	if !s.Stale() {
		t.Fatalf("expected stale")
	}
	s.ReplaceAll(state("u1", `1`))
	if s.Stale() {
		t.Fatalf("replace must clear stale")
	}
}
