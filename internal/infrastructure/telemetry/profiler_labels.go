package telemetry

import (
	"context"
	"runtime/pprof"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelHandler   = "handler"
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelOperation = "operation"
	ProfilingLabelImport    = "import_type"
)

// MaxLabelValueLength caps label values to keep profile series bounded
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profiling labels; ids belong on spans
var highCardinalityLabels = map[string]bool{
	"user_id":           true,
	"request_id":        true,
	"trace_id":          true,
	"span_id":           true,
	"sale_id":           true,
	"plan_id":           true,
	"product_id":        true,
	"inventory_item_id": true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its goroutine.
// Labels are sanitized first; an empty result runs fn unlabelled.
//
//	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("deduct_for_sale", nil),
//	    func(ctx context.Context) { result, err = s.deduct(ctx, req) })
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is WithProfilingLabels on the runtime/pprof API, for
// processes that export standard pprof instead of pushing to Pyroscope
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// HTTPRequestLabels builds labels for one HTTP handler invocation
func HTTPRequestLabels(handler, route, method string) map[string]string {
	return map[string]string{
		ProfilingLabelHandler: handler,
		ProfilingLabelRoute:   route,
		ProfilingLabelMethod:  method,
	}
}

// OperationLabels builds labels for a named application operation
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		labels[k] = v
	}
	labels[ProfilingLabelOperation] = operation
	return labels
}

// sanitizeLabels returns sorted key/value pairs with empty entries and
// high-cardinality keys removed, keys normalized to snake_case and values
// truncated
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}

	keys := make([]string, 0, len(clean))
	for k := range clean {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, clean[k])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	var b strings.Builder
	for _, r := range key {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}
