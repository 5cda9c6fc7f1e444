// Package codec defines the boundary between the evaluator's Value
// tree and the three supported serialization formats. Concrete codecs
// live in the yamlcodec, jsoncodec and tomlcodec sub-packages; this
// package wires them behind one Format-keyed interface.
package codec

import (
	"fmt"
	"io"
	"strings"

	"github.com/sdex/sdex/codec/jsoncodec"
	"github.com/sdex/sdex/codec/tomlcodec"
	"github.com/sdex/sdex/codec/yamlcodec"
	"github.com/sdex/sdex/eval"
)

// Format names one of the three supported serializations.
type Format int

const (
	FormatAuto Format = iota
	FormatYAML
	FormatJSON
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	default:
		return "auto"
	}
}

// ParseFormat maps a --input-format/--output-format flag value to a
// Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format %q", s)
	}
}

// DetectFormat infers a Format from a file name's extension, falling
// back to YAML when the extension is absent or unrecognized, per the
// CLI's -p/-o auto rule.
func DetectFormat(name string) Format {
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return FormatYAML
	case strings.HasSuffix(name, ".json"):
		return FormatJSON
	case strings.HasSuffix(name, ".toml"):
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Options carries the encode-side knobs from the CLI's flag table:
// indentation width, pretty-printing, color and document separators.
// Scalar unwrapping (-r) is not an encode option; the cli package
// prints unwrapped strings itself without calling Encode. Decode needs
// none of these.
type Options struct {
	Indent   int
	Pretty   bool
	Color    bool
	NoDocSep bool
}

// DefaultOptions matches the CLI's documented flag defaults.
func DefaultOptions() Options {
	return Options{Indent: 2}
}

// Decode reads every document in r under format f into a Value
// sequence: multi-document for YAML and JSON Lines, single-element
// for TOML.
func Decode(r io.Reader, f Format) ([]eval.Value, error) {
	switch f {
	case FormatYAML, FormatAuto:
		return yamlcodec.Decode(r)
	case FormatJSON:
		return jsoncodec.Decode(r)
	case FormatTOML:
		return tomlcodec.Decode(r)
	default:
		return nil, fmt.Errorf("decode: unsupported format %s", f)
	}
}

// Encode writes one value to w under format f. YAML uses opts.Indent
// and opts.NoDocSep; JSON uses opts.Indent, opts.Pretty and
// opts.Color; TOML ignores opts.
func Encode(w io.Writer, v eval.Value, f Format, opts Options) error {
	switch f {
	case FormatYAML, FormatAuto:
		return yamlcodec.Encode(w, v, yamlcodec.Options{Indent: opts.Indent, NoDocSep: opts.NoDocSep})
	case FormatJSON:
		return jsoncodec.Encode(w, v, jsoncodec.Options{Indent: opts.Indent, Pretty: opts.Pretty, Color: opts.Color})
	case FormatTOML:
		return tomlcodec.Encode(w, v)
	default:
		return fmt.Errorf("encode: unsupported format %s", f)
	}
}
