package transform

import "testing"

func TestChunksSplitsOnRuneBoundaries(t *testing.T) {
	chunks := Chunks("привет мир", 6)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != "привет" || chunks[1] != " мир" {
		t.Errorf("unexpected chunks: %q", chunks)
	}
}

func TestChunksShortText(t *testing.T) {
	chunks := Chunks("short", 4096)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("unexpected chunks: %q", chunks)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Errorf("Truncate = %q, want %q", got, "abc…")
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("Truncate = %q, want %q", got, "abc")
	}
}
