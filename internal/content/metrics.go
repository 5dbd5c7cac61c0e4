package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Recognised metric keys
const (
	MetricCreativeCount = "creativeCount"
	MetricBlogPosts     = "blogPosts"
	MetricPresence      = "presence"
	MetricPoetry        = "poetry"
	MetricASCIIArt      = "asciiArt"
	MetricCollaboration = "collaboration"
)

// MetricDefaults holds the value shown for every key the caller leaves out
var MetricDefaults = map[string]string{
	MetricCreativeCount: "4",
	MetricBlogPosts:     "3",
	MetricPresence:      "STABLE",
	MetricPoetry:        "FLOWING",
	MetricASCIIArt:      "MANIFESTING",
	MetricCollaboration: "THRIVING",
}

// ErrMetricsNotObject is returned when the metrics payload is valid JSON but not an object
var ErrMetricsNotObject = errors.New("metrics must be a JSON object")

// ErrTrailingData is returned when the metrics payload has anything after the object
var ErrTrailingData = errors.New("unexpected data after JSON value")

// Metrics is a sparse set of dashboard values keyed by metric name
type Metrics map[string]string

// Value returns the value for key, or its default when absent or empty
func (m Metrics) Value(key string) string {
	if v := m[key]; v != "" {
		return v
	}
	return MetricDefaults[key]
}

// ParseMetricsJSON decodes a single JSON object into Metrics.
// Values are stringified the way they would be interpolated into text: numbers
// in their shortest form, arrays joined by commas, objects as "[object Object]".
// Falsy values ("", 0, false, null) are dropped so the default shows instead.
func ParseMetricsJSON(data []byte) (Metrics, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse metrics: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("failed to parse metrics: %w", ErrTrailingData)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrMetricsNotObject
	}
	return metricsFromMap(obj), nil
}

// UnmarshalJSON applies the ParseMetricsJSON rules when Metrics is embedded in a larger document
func (m *Metrics) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	parsed, err := ParseMetricsJSON(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func metricsFromMap(obj map[string]any) Metrics {
	metrics := make(Metrics, len(obj))
	for key, value := range obj {
		if s, ok := metricString(value); ok {
			metrics[key] = s
		}
	}
	return metrics
}

func metricString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String(), true
		}
		if f == 0 {
			return "", false
		}
		return formatNumber(f), true
	default:
		// arrays and objects are truthy even when they stringify to ""
		return interpolate(val), true
	}
}

// interpolate renders v the way string interpolation does for script values
func interpolate(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return formatNumber(f)
		}
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = interpolate(elem)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// formatNumber prints f in plain decimal notation, switching to exponent form
// below 1e-6 and from 1e21 up, with no zero padding in the exponent.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
