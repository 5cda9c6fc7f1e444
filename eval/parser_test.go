package eval

import "testing"

func TestParsePrecedence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", Print(BinaryExpr{
			Op:  BinAdd,
			Lhs: Literal{Value: Int(1)},
			Rhs: BinaryExpr{Op: BinMul, Lhs: Literal{Value: Int(2)}, Rhs: Literal{Value: Int(3)}},
		})},
		{".a | .b, .c", Print(Pipe{
			Lhs: FieldAccess{Target: Identity{}, Field: "a"},
			Rhs: Comma{
				Lhs: FieldAccess{Target: Identity{}, Field: "b"},
				Rhs: FieldAccess{Target: Identity{}, Field: "c"},
			},
		})},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			expr := mustParse(t, tt.src)
			if got := Print(expr); got != tt.want {
				t.Errorf("Print(parse(%q)) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestLexErrorOnUnterminatedString(t *testing.T) {
	t.Parallel()
	_, err := ParseString(`"unterminated`)
	if err == nil {
		t.Fatal("unterminated string: want error, got nil")
	}
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	t.Parallel()
	_, err := ParseString(".a +")
	if err == nil {
		t.Fatal("dangling operator: want error, got nil")
	}
}

func TestBuiltinArgCountMismatchIsParseError(t *testing.T) {
	t.Parallel()
	_, err := ParseString("has(.a)")
	if err == nil {
		t.Fatal("has/1: want parse error, got nil")
	}
}

func TestUnknownBuiltinIsParseError(t *testing.T) {
	t.Parallel()
	_, err := ParseString("nonexistent(1, 2)")
	if err == nil {
		t.Fatal("unknown builtin: want parse error, got nil")
	}
}

func TestFieldAccessChain(t *testing.T) {
	t.Parallel()
	expr := mustParse(t, ".a.b.c")
	out, err := Eval(expr, NewObject().Set("a", NewObject().Set("b", NewObject().Set("c", Int(42)))))
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if len(out) != 1 || !Equal(out[0], Int(42)) {
		t.Fatalf(".a.b.c = %v, want 42", out)
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	t.Parallel()
	out := mustEval(t, `"a\nb"`, Null{})
	if len(out) != 1 || out[0].(String) != "a\nb" {
		t.Fatalf(`"a\nb" = %v, want "a\nb"`, out)
	}
}
