package yamlcodec

import (
	"strings"
	"testing"

	"github.com/sdex/sdex/eval"
)

func TestDecodeMultiDocument(t *testing.T) {
	t.Parallel()
	out, err := Decode(strings.NewReader("a: 1\n---\nb: 2\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Decode produced %d documents, want 2", len(out))
	}
}

func TestDecodePreservesMappingOrder(t *testing.T) {
	t.Parallel()
	out, err := Decode(strings.NewReader("z: 1\na: 2\nm: 3\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	obj, ok := out[0].(eval.Object)
	if !ok {
		t.Fatalf("Decode result is %T, want eval.Object", out[0])
	}
	want := []string{"z", "a", "m"}
	got := obj.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeEmptyStreamYieldsNull(t *testing.T) {
	t.Parallel()
	out, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 || out[0].Kind() != eval.KindNull {
		t.Fatalf("Decode(empty) = %v, want [null]", out)
	}
}

func TestEncodeWritesDocumentSeparator(t *testing.T) {
	t.Parallel()
	var buf strings.Builder
	if err := Encode(&buf, eval.Int(1), Options{Indent: 2}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "---\n") {
		t.Fatalf("Encode output = %q, want to start with ---", buf.String())
	}
}

func TestEncodeNoDocSepSuppressesSeparator(t *testing.T) {
	t.Parallel()
	var buf strings.Builder
	if err := Encode(&buf, eval.Int(1), Options{Indent: 2, NoDocSep: true}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.HasPrefix(buf.String(), "---") {
		t.Fatalf("Encode output = %q, want no --- prefix", buf.String())
	}
}
