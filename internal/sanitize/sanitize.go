package sanitize

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// maxInlineBlob is the largest binary value stored inline (base64).
// Anything bigger is replaced with a length-only descriptor.
const maxInlineBlob = 1024

// maxDepth bounds recursion so pathological nesting (or a cycle the
// pointer tracking misses) degrades instead of overflowing the stack.
const maxDepth = 64

// kind classifies a raw tag value for dispatch. The classification is
// exhaustive: every reflect.Kind falls into exactly one bucket.
type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindString
	kindBytes
	kindTime
	kindSeq
	kindMap
	kindStruct
	kindOpaque // func, chan, unsafe pointer: only a textual form exists
)

// result is the outcome of sanitizing one node: either a clean value or a
// degraded marker. Degraded results are folded into the parent rather than
// propagated as errors, so a single malformed value never voids the record.
type result struct {
	value    interface{}
	degraded bool
}

func ok(v interface{}) result { return result{value: v} }

func degraded(msg string) result { return result{value: msg, degraded: true} }

type walker struct {
	// visited tracks addressable containers currently on the walk stack,
	// keyed by pointer, to cut cycles.
	visited map[uintptr]bool
	// degradations counts values that fell back to marker strings.
	degradations int
}

// Sanitize converts v into a value that json.Marshal always accepts and
// whose strings contain no raw control characters. It never panics.
func Sanitize(v interface{}) interface{} {
	w := &walker{visited: make(map[uintptr]bool)}

	root := w.sanitizeValue(reflect.ValueOf(v), "$", 0)

	if w.degradations > 0 {
		metrics.SanitizerDegradations.Add(float64(w.degradations))
		logging.Debug("sanitize: %d value(s) degraded to markers", w.degradations)
	}

	return finalize(root.value, v)
}

// sanitizeValue dispatches one node. Panics from exotic values (broken
// Stringers, reflect edge cases) are contained here and degrade to a marker
// for that node only.
func (w *walker) sanitizeValue(rv reflect.Value, path string, depth int) (res result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debug("sanitize: panic at %s: %v", path, r)
			w.degradations++
			res = degraded(fmt.Sprintf("[Error: %v]", r))
		}
	}()

	if depth > maxDepth {
		w.degradations++
		return degraded("[Error: max depth exceeded]")
	}

	// Unwrap pointers and interfaces so the accessors below see the
	// concrete value.
	rv = deref(rv)

	switch classify(rv) {
	case kindNull:
		return ok(nil)
	case kindBool:
		return ok(rv.Bool())
	case kindNumber:
		return w.sanitizeNumber(rv)
	case kindString:
		return ok(CleanString(rv.String()))
	case kindBytes:
		return ok(sanitizeBytes(rv.Bytes()))
	case kindTime:
		return ok(rv.Interface().(time.Time).UTC().Format(time.RFC3339))
	case kindSeq:
		return w.sanitizeSeq(rv, path, depth)
	case kindMap:
		return w.sanitizeMap(rv, path, depth)
	case kindStruct:
		return w.sanitizeStruct(rv, path, depth)
	default:
		// Opaque values only have a textual form.
		return ok(CleanString(fmt.Sprintf("%T(%v)", rv.Interface(), rv)))
	}
}

func classify(rv reflect.Value) kind {
	if !rv.IsValid() {
		return kindNull
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return kindNull
		}
		return classify(rv.Elem())
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return kindBytes
		}
		if rv.IsNil() {
			return kindNull
		}
		return kindSeq
	case reflect.Array:
		return kindSeq
	case reflect.Map:
		if rv.IsNil() {
			return kindNull
		}
		return kindMap
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return kindTime
		}
		return kindStruct
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return kindOpaque
	default:
		return kindOpaque
	}
}

// deref unwraps pointers and interfaces so container identity checks see
// the underlying value.
func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

func (w *walker) sanitizeNumber(rv reflect.Value) result {
	rv = deref(rv)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// NaN and infinities are not representable in JSON.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ok(fmt.Sprintf("%v", f))
		}
		return ok(f)
	case reflect.Complex64, reflect.Complex128:
		return ok(fmt.Sprintf("%v", rv.Complex()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ok(float64(rv.Uint()))
	default:
		return ok(float64(rv.Int()))
	}
}

func sanitizeBytes(b []byte) interface{} {
	if len(b) < maxInlineBlob {
		return map[string]interface{}{
			"type":   "buffer",
			"data":   base64.StdEncoding.EncodeToString(b),
			"length": float64(len(b)),
		}
	}
	return map[string]interface{}{
		"type":        "buffer",
		"length":      float64(len(b)),
		"description": "too large to store",
	}
}

func (w *walker) sanitizeSeq(rv reflect.Value, path string, depth int) result {
	rv = deref(rv)

	if rv.Kind() == reflect.Slice {
		ptr := rv.Pointer()
		if w.visited[ptr] {
			w.degradations++
			return degraded("[Error: circular reference]")
		}
		w.visited[ptr] = true
		defer delete(w.visited, ptr)
	}

	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := w.sanitizeValue(rv.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1)
		out[i] = elem.value
	}
	return ok(out)
}

func (w *walker) sanitizeMap(rv reflect.Value, path string, depth int) result {
	rv = deref(rv)

	ptr := rv.Pointer()
	if w.visited[ptr] {
		w.degradations++
		return degraded("[Error: circular reference]")
	}
	w.visited[ptr] = true
	defer delete(w.visited, ptr)

	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := CleanString(stringifyKey(iter.Key()))
		if key == "" {
			key = "_"
		}
		elem := w.sanitizeValue(iter.Value(), path+"."+key, depth+1)
		out[key] = elem.value
	}
	return ok(out)
}

func stringifyKey(rv reflect.Value) string {
	rv = deref(rv)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprintf("%v", rv)
}

// sanitizeStruct handles non-plain structures (library types like EXIF
// rationals) by round-tripping them through JSON and sanitizing the result.
// Structures that cannot round-trip degrade to a "[TypeName: value]"
// description.
func (w *walker) sanitizeStruct(rv reflect.Value, path string, depth int) result {
	rv = deref(rv)

	if rv.CanAddr() {
		ptr := rv.Addr().Pointer()
		if w.visited[ptr] {
			w.degradations++
			return degraded("[Error: circular reference]")
		}
		w.visited[ptr] = true
		defer delete(w.visited, ptr)
	}

	b, err := json.Marshal(rv.Interface())
	if err == nil {
		var round interface{}
		if json.Unmarshal(b, &round) == nil {
			return w.sanitizeValue(reflect.ValueOf(round), path, depth+1)
		}
	}

	w.degradations++
	desc := fmt.Sprintf("[%s: %v]", rv.Type().Name(), rv.Interface())
	return degraded(CleanString(desc))
}

// CleanString strips U+0000 and the other C0/C1 control characters
// (including newlines and tabs; stored tag strings are single-line) and
// trims surrounding whitespace. Backslash escaping is left to the JSON
// encoder so that cleaning is idempotent.
func CleanString(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// finalize validates the built tree end to end: marshal it, scan for any
// residual control bytes, strip and re-parse if found. If the tree cannot
// be serialized at all, fall back to an object carrying the original
// top-level key names and the failure message.
func finalize(root interface{}, original interface{}) interface{} {
	b, err := json.Marshal(root)
	if err != nil {
		logging.Warn("sanitize: final serialization failed: %v", err)
		return fallbackObject(original, err)
	}

	if !hasControlBytes(b) {
		return root
	}

	// Residual controls can only come from values that bypassed the
	// string rule; strip at the byte level and re-parse.
	cleaned := stripControlBytes(b)
	var reparsed interface{}
	if err := json.Unmarshal(cleaned, &reparsed); err != nil {
		logging.Warn("sanitize: re-parse after control stripping failed: %v", err)
		return fallbackObject(original, err)
	}
	return reparsed
}

func hasControlBytes(b []byte) bool {
	for _, c := range b {
		if c < 0x20 {
			return true
		}
	}
	return false
}

func stripControlBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c >= 0x20 {
			out = append(out, c)
		}
	}
	return out
}

// fallbackObject is the value of last resort: the original top-level key
// names plus the failure message. Sanitize has no failure path that
// returns nothing.
func fallbackObject(original interface{}, cause error) map[string]interface{} {
	keys := []interface{}{}
	rv := deref(reflect.ValueOf(original))
	if rv.IsValid() && rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, CleanString(stringifyKey(iter.Key())))
		}
	}
	return map[string]interface{}{
		"sanitizationError": CleanString(fmt.Sprintf("%v", cause)),
		"originalKeys":      keys,
	}
}
