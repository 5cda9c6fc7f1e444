package tomlcodec

import (
	"strings"
	"testing"

	"github.com/sdex/sdex/eval"
)

func TestDecodeSimpleTable(t *testing.T) {
	t.Parallel()
	out, err := Decode(strings.NewReader("name = \"ada\"\nage = 37\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Decode produced %d values, want 1", len(out))
	}
	obj, ok := out[0].(eval.Object)
	if !ok {
		t.Fatalf("Decode result is %T, want eval.Object", out[0])
	}
	name, ok := obj.Get("name")
	if !ok || name.(eval.String) != "ada" {
		t.Fatalf("name = %v, want ada", name)
	}
}

func TestEncodeRequiresTopLevelObject(t *testing.T) {
	t.Parallel()
	var buf strings.Builder
	err := Encode(&buf, eval.Int(5))
	if err == nil {
		t.Fatal("Encode(scalar): want error, got nil")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	obj := eval.NewObject().Set("name", eval.String("ada")).Set("age", eval.Int(37))
	var buf strings.Builder
	if err := Encode(&buf, obj); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := out[0].(eval.Object).Get("age")
	if !ok || !eval.Equal(got, eval.Int(37)) {
		t.Fatalf("age = %v, want 37", got)
	}
}
