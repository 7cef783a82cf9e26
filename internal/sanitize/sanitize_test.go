package sanitize

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestCleanString tests control character stripping and trimming.
func TestCleanString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain string unchanged",
			input: "Canon EOS R5",
			want:  "Canon EOS R5",
		},
		{
			name:  "null bytes stripped",
			input: "Canon\x00EOS",
			want:  "CanonEOS",
		},
		{
			name:  "control characters stripped",
			input: "a\x01b\x1fc\x7fd",
			want:  "abcd",
		},
		{
			name:  "newlines and tabs stripped",
			input: "line1\nline2\tend",
			want:  "line1line2end",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  NIKKOR Z 24-70mm  ",
			want:  "NIKKOR Z 24-70mm",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "unicode preserved",
			input: "café 日本",
			want:  "café 日本",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CleanString(tt.input)
			if got != tt.want {
				t.Errorf("CleanString(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Cleaning must be idempotent
			if again := CleanString(got); again != got {
				t.Errorf("CleanString not idempotent: %q -> %q", got, again)
			}
		})
	}
}

// TestSanitizeNeverPanics feeds values designed to break naive serializers.
func TestSanitizeNeverPanics(t *testing.T) {
	t.Parallel()

	cyclic := map[string]interface{}{}
	cyclic["self"] = cyclic

	cyclicSlice := make([]interface{}, 1)
	cyclicSlice[0] = cyclicSlice

	bigBlob := make([]byte, 2<<20)

	inputs := []struct {
		name  string
		value interface{}
	}{
		{"nil", nil},
		{"cyclic map", cyclic},
		{"cyclic slice", map[string]interface{}{"s": cyclicSlice}},
		{"function value", map[string]interface{}{"fn": func() {}}},
		{"channel value", map[string]interface{}{"ch": make(chan int)}},
		{"huge blob", map[string]interface{}{"data": bigBlob}},
		{"nan and inf", map[string]interface{}{"a": math.NaN(), "b": math.Inf(1), "c": math.Inf(-1)}},
		{"deep nesting", deeplyNested(200)},
		{"mixed keys", map[int]string{1: "one", 2: "two"}},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := Sanitize(tt.value)

			// Whatever comes back must be marshalable
			if _, err := json.Marshal(out); err != nil {
				t.Errorf("sanitized output not marshalable: %v", err)
			}
		})
	}
}

func deeplyNested(depth int) interface{} {
	var v interface{} = "leaf"
	for i := 0; i < depth; i++ {
		v = map[string]interface{}{"next": v}
	}
	return v
}

// TestSanitizeIdempotent verifies that sanitizing an already-sanitized
// tree is a no-op.
func TestSanitizeIdempotent(t *testing.T) {
	t.Parallel()

	input := map[string]interface{}{
		"Make":        "Canon\x00",
		"Model":       "  EOS R5\n",
		"ISO":         3200,
		"FNumber":     2.8,
		"Flags":       []interface{}{"a\x01b", 1, true, nil},
		"Nested":      map[string]interface{}{"GPSLatitude": 49.25},
		"RawSegment":  []byte{1, 2, 3},
		"CaptureTime": time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	first := Sanitize(input)
	second := Sanitize(first)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Sanitize not idempotent:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}

// TestSanitizeOutputHasNoControlCharacters marshals the result and scans
// the raw bytes.
func TestSanitizeOutputHasNoControlCharacters(t *testing.T) {
	t.Parallel()

	input := map[string]interface{}{
		"a": "x\x00y",
		"b": []interface{}{"p\x1bq", map[string]interface{}{"c\nd": "e\rf"}},
	}

	out := Sanitize(input)
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, c := range b {
		if c < 0x20 {
			t.Fatalf("control byte 0x%02x in output: %s", c, b)
		}
	}
}

func TestSanitizeValues(t *testing.T) {
	t.Parallel()

	t.Run("small binary inlined as base64", func(t *testing.T) {
		t.Parallel()

		out := Sanitize(map[string]interface{}{"thumb": []byte{1, 2, 3}})
		m := out.(map[string]interface{})
		buf, ok := m["thumb"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected buffer descriptor, got %T", m["thumb"])
		}
		if buf["type"] != "buffer" {
			t.Errorf("type = %v, want buffer", buf["type"])
		}
		if buf["data"] == nil || buf["data"] == "" {
			t.Error("expected inline base64 data")
		}
		if buf["length"] != float64(3) {
			t.Errorf("length = %v, want 3", buf["length"])
		}
	})

	t.Run("large binary replaced with descriptor", func(t *testing.T) {
		t.Parallel()

		blob := make([]byte, 4096)
		out := Sanitize(map[string]interface{}{"raw": blob})
		m := out.(map[string]interface{})
		buf := m["raw"].(map[string]interface{})
		if _, hasData := buf["data"]; hasData {
			t.Error("large blob should not be inlined")
		}
		if buf["length"] != float64(4096) {
			t.Errorf("length = %v, want 4096", buf["length"])
		}
		if buf["description"] != "too large to store" {
			t.Errorf("description = %v", buf["description"])
		}
	})

	t.Run("NaN becomes string", func(t *testing.T) {
		t.Parallel()

		out := Sanitize(map[string]interface{}{"v": math.NaN()})
		m := out.(map[string]interface{})
		s, ok := m["v"].(string)
		if !ok || !strings.Contains(s, "NaN") {
			t.Errorf("NaN not stringified: %v", m["v"])
		}
	})

	t.Run("time formatted as RFC3339", func(t *testing.T) {
		t.Parallel()

		ts := time.Date(2023, 4, 1, 12, 30, 0, 0, time.UTC)
		out := Sanitize(map[string]interface{}{"when": ts})
		m := out.(map[string]interface{})
		if m["when"] != "2023-04-01T12:30:00Z" {
			t.Errorf("when = %v", m["when"])
		}
	})

	t.Run("cycle degrades to marker", func(t *testing.T) {
		t.Parallel()

		cyclic := map[string]interface{}{"name": "root"}
		cyclic["self"] = cyclic

		out := Sanitize(cyclic)
		m := out.(map[string]interface{})
		if m["name"] != "root" {
			t.Errorf("sibling value lost: %v", m["name"])
		}
		marker, ok := m["self"].(string)
		if !ok || !strings.Contains(marker, "circular") {
			t.Errorf("expected circular marker, got %v", m["self"])
		}
	})

	t.Run("one bad value does not void siblings", func(t *testing.T) {
		t.Parallel()

		out := Sanitize(map[string]interface{}{
			"good": "value",
			"bad":  make(chan int),
		})
		m := out.(map[string]interface{})
		if m["good"] != "value" {
			t.Errorf("good sibling lost: %v", m["good"])
		}
		if _, ok := m["bad"].(string); !ok {
			t.Errorf("opaque value should become text, got %T", m["bad"])
		}
	})

	t.Run("integers become float64", func(t *testing.T) {
		t.Parallel()

		out := Sanitize(map[string]interface{}{"iso": 3200})
		m := out.(map[string]interface{})
		if m["iso"] != float64(3200) {
			t.Errorf("iso = %v (%T)", m["iso"], m["iso"])
		}
	})

	t.Run("non-string map keys stringified", func(t *testing.T) {
		t.Parallel()

		out := Sanitize(map[string]interface{}{"tags": map[int]string{271: "Make"}})
		m := out.(map[string]interface{})
		tags := m["tags"].(map[string]interface{})
		if tags["271"] != "Make" {
			t.Errorf("tags = %v", tags)
		}
	})
}
