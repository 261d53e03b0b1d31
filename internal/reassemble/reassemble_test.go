package reassemble

import (
	"reflect"
	"testing"
)

func TestReassembler_SingleChunkMultipleLines(t *testing.T) {
	r := New()
	got := r.Feed([]byte("one\ntwo\nthree\n"))
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if p := r.Pending(); p != 0 {
		t.Fatalf("pending = %d, want 0", p)
	}
}

func TestReassembler_LineSplitAcrossChunks(t *testing.T) {
	r := New()
	if got := r.Feed([]byte("hel")); len(got) != 0 {
		t.Fatalf("got %v, want no complete lines yet", got)
	}
	if p := r.Pending(); p != 3 {
		t.Fatalf("pending = %d, want 3", p)
	}
	got := r.Feed([]byte("lo\nworld\n"))
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReassembler_TrimsTrailingCR(t *testing.T) {
	r := New()
	got := r.Feed([]byte("windows line\r\nnext\r\n"))
	want := []string{"windows line", "next"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReassembler_SkipsWhitespaceOnlyLines(t *testing.T) {
	r := New()
	got := r.Feed([]byte("first\n   \nsecond\n\n"))
	want := []string{"first", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReassembler_ByteByByteDelivery(t *testing.T) {
	r := New()
	input := "a line of text\n"
	var got []string
	for i := 0; i < len(input); i++ {
		got = append(got, r.Feed([]byte{input[i]})...)
	}
	want := []string{"a line of text"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReassembler_Reset(t *testing.T) {
	r := New()
	r.Feed([]byte("partial"))
	if r.Pending() == 0 {
		t.Fatalf("expected pending fragment before reset")
	}
	r.Reset()
	if r.Pending() != 0 {
		t.Fatalf("expected empty fragment after reset, got %d bytes", r.Pending())
	}
}

func TestReassembler_EmptyChunkIsNoOp(t *testing.T) {
	r := New()
	if got := r.Feed(nil); len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
	if p := r.Pending(); p != 0 {
		t.Fatalf("pending = %d, want 0", p)
	}
}
