package embeddings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encodeVector serializes a vector as a bracketed comma-separated string,
// the wire format of the text-encoded tier: "[0.1,0.2,0.3]".
func encodeVector(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// parseVector parses a serialized vector back into floats. It accepts both
// the text-tier bracket format "[...]" and the Postgres array/vector cast
// format "{...}", since the in-process fallback scan may read rows written
// under any tier.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return nil, fmt.Errorf("vector string too short: %q", s)
	}
	first, last := s[0], s[len(s)-1]
	if !(first == '[' && last == ']') && !(first == '{' && last == '}') {
		return nil, fmt.Errorf("vector string not bracketed: %q", truncateForError(s))
	}
	body := s[1 : len(s)-1]
	if strings.TrimSpace(body) == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parsing vector element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// truncateForError keeps malformed vector strings from flooding logs.
func truncateForError(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// cosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Mismatched lengths or zero-magnitude vectors score 0 rather
// than erroring, matching the lenient read path of the fallback tier.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float64Slice widens a float32 vector for the float8[] parameter of the
// fixed-array tier.
func float64Slice(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
