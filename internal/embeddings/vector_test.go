package embeddings

import (
	"math"
	"testing"
)

func TestEncodeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", []float32{}, "[]"},
		{"nil", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"multiple", []float32{1, -2.5, 0}, "[1,-2.5,0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeVector(tt.in); got != tt.want {
				t.Errorf("encodeVector(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseVector(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float32
		wantErr bool
	}{
		{"bracket format", "[0.1,0.2,0.3]", []float32{0.1, 0.2, 0.3}, false},
		{"brace format from array cast", "{0.1,0.2}", []float32{0.1, 0.2}, false},
		{"spaces tolerated", "[ 1 , 2 ]", []float32{1, 2}, false},
		{"surrounding whitespace", "  [1,2]  ", []float32{1, 2}, false},
		{"empty body", "[]", []float32{}, false},
		{"negative values", "[-1.5,2]", []float32{-1.5, 2}, false},
		{"unbracketed", "1,2,3", nil, true},
		{"mismatched brackets", "[1,2}", nil, true},
		{"non-numeric element", "[1,abc,3]", nil, true},
		{"empty string", "", nil, true},
		{"single char", "x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVector(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseVector(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVector(%q) returned error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseVector(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("element %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	in := []float32{0.123456, -0.98765, 42, 0}
	got, err := parseVector(encodeVector(in))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], in[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0},
		{"length mismatch scores zero", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"zero vector scores zero", []float32{0, 0}, []float32{1, 2}, 0},
		{"empty vectors score zero", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateForError(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateForError(string(long))
	if len(got) != 35 {
		t.Errorf("truncated length = %d, want 35", len(got))
	}
	if got := truncateForError("short"); got != "short" {
		t.Errorf("short string modified: %q", got)
	}
}
