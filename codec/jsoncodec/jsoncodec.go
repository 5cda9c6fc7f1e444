// Package jsoncodec decodes and encodes eval.Value trees as JSON,
// preserving object key insertion order (which encoding/json's
// map-based decode would lose) by walking the token stream by hand
// with a matching hand-rolled tree writer, rather than marshaling
// into Go structs.
package jsoncodec

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sdex/sdex/eval"
)

// Decode reads every whitespace-separated JSON value in r (JSON
// Lines) into a Value sequence.
func Decode(r io.Reader) ([]eval.Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var out []eval.Value
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (eval.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("json: unexpected delimiter %q", t)
		}
	case json.Number:
		return decodeNumber(t)
	case string:
		return eval.String(t), nil
	case bool:
		return eval.Bool(t), nil
	case nil:
		return eval.Null{}, nil
	default:
		return nil, fmt.Errorf("json: unexpected token %v", tok)
	}
}

func decodeNumber(n json.Number) (eval.Value, error) {
	s := string(n)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return eval.Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("json: invalid number %s", s)
	}
	return eval.Float(f), nil
}

func decodeObject(dec *json.Decoder) (eval.Value, error) {
	obj := eval.NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("json: object key must be a string, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		val, err := decodeValue(dec, valTok)
		if err != nil {
			return nil, err
		}
		obj = obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("json: %w", err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (eval.Value, error) {
	var items []eval.Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		v, err := decodeValue(dec, tok)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, fmt.Errorf("json: %w", err)
	}
	return eval.NewArray(items), nil
}

// Options controls JSON rendering.
type Options struct {
	Indent int
	Pretty bool
	Color  bool
}

var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	nullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Encode writes v to w as a single JSON value, compact unless
// opts.Pretty, colorized with lipgloss styles when opts.Color.
func Encode(w io.Writer, v eval.Value, opts Options) error {
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc := &writer{
		w:      bufio.NewWriter(w),
		indent: strings.Repeat(" ", indent),
		pretty: opts.Pretty,
		color:  opts.Color,
	}
	enc.writeValue(v, 0)
	enc.w.WriteByte('\n')
	return enc.w.Flush()
}

type writer struct {
	w      *bufio.Writer
	indent string
	pretty bool
	color  bool
}

func (e *writer) style(s lipgloss.Style, text string) string {
	if !e.color {
		return text
	}
	return s.Render(text)
}

func (e *writer) newline(depth int) {
	if !e.pretty {
		return
	}
	e.w.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.w.WriteString(e.indent)
	}
}

func (e *writer) writeValue(v eval.Value, depth int) {
	switch t := v.(type) {
	case eval.Null:
		e.w.WriteString(e.style(nullStyle, "null"))
	case eval.Bool:
		e.w.WriteString(e.style(boolStyle, t.String()))
	case eval.Number:
		e.w.WriteString(e.style(numberStyle, t.String()))
	case eval.String:
		e.w.WriteString(e.style(stringStyle, jsonQuote(string(t))))
	case eval.Array:
		e.writeArray(t, depth)
	case eval.Object:
		e.writeObject(t, depth)
	}
}

func (e *writer) writeArray(a eval.Array, depth int) {
	items := a.Items()
	if len(items) == 0 {
		e.w.WriteString("[]")
		return
	}
	e.w.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			e.w.WriteByte(',')
			if !e.pretty {
				e.w.WriteByte(' ')
			}
		}
		e.newline(depth + 1)
		e.writeValue(item, depth+1)
	}
	e.newline(depth)
	e.w.WriteByte(']')
}

func (e *writer) writeObject(o eval.Object, depth int) {
	keys := o.Keys()
	if len(keys) == 0 {
		e.w.WriteString("{}")
		return
	}
	e.w.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			e.w.WriteByte(',')
			if !e.pretty {
				e.w.WriteByte(' ')
			}
		}
		e.newline(depth + 1)
		e.w.WriteString(e.style(keyStyle, jsonQuote(k)))
		e.w.WriteByte(':')
		e.w.WriteByte(' ')
		val, _ := o.Get(k)
		e.writeValue(val, depth+1)
	}
	e.newline(depth)
	e.w.WriteByte('}')
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
