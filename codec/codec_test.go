package codec

import "testing"

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"toml", FormatTOML, false},
		{"JSON", FormatJSON, false},
		{"xml", FormatAuto, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want Format
	}{
		{"doc.yaml", FormatYAML},
		{"doc.yml", FormatYAML},
		{"doc.json", FormatJSON},
		{"doc.toml", FormatTOML},
		{"doc.txt", FormatYAML},
		{"-", FormatYAML},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectFormat(tt.name); got != tt.want {
				t.Fatalf("DetectFormat(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
