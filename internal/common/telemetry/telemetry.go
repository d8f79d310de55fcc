// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/arclight-qa/weldcheck/internal/common"
)

var (
	initOnce sync.Once

	extractionChunksTotal  *expvar.Int
	extractionChunksFailed *expvar.Int
	extractionLatencyMS    *expvar.Int

	comparisonsTotal    *expvar.Int
	comparisonLatencyMS *expvar.Int

	whisperCallsTotal   *expvar.Map
	whisperLatencyMS    *expvar.Map
	graphQueriesTotal   *expvar.Map
	graphQueryLatencyMS *expvar.Map
)

func ensureInit() {
	initOnce.Do(func() {
		extractionChunksTotal = expvar.NewInt("weldcheck_extraction_chunks_total")
		extractionChunksFailed = expvar.NewInt("weldcheck_extraction_chunks_failed")
		extractionLatencyMS = expvar.NewInt("weldcheck_extraction_latency_ms")

		comparisonsTotal = expvar.NewInt("weldcheck_comparisons_total")
		comparisonLatencyMS = expvar.NewInt("weldcheck_comparison_latency_ms")

		whisperCallsTotal = expvar.NewMap("weldcheck_whisper_calls_total")
		whisperLatencyMS = expvar.NewMap("weldcheck_whisper_latency_ms")

		graphQueriesTotal = expvar.NewMap("weldcheck_graph_queries_total")
		graphQueryLatencyMS = expvar.NewMap("weldcheck_graph_query_latency_ms")
	})
}

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

// StartSpan records a debug-level timing span. The returned func closes the
// span and logs its duration with any extra attributes.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordExtractionChunk counts one per-chunk extraction attempt.
func RecordExtractionChunk(ok bool, duration time.Duration) {
	ensureInit()
	extractionChunksTotal.Add(1)
	if !ok {
		extractionChunksFailed.Add(1)
	}
	if duration > 0 {
		extractionLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordComparison counts one full document comparison.
func RecordComparison(duration time.Duration) {
	ensureInit()
	comparisonsTotal.Add(1)
	if duration > 0 {
		comparisonLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordWhisperCall counts one OCR API round trip by operation kind.
func RecordWhisperCall(kind string, duration time.Duration) {
	ensureInit()
	key := mapKey(kind)
	whisperCallsTotal.Add(key, 1)
	if duration > 0 {
		whisperLatencyMS.Add(key, duration.Milliseconds())
	}
}

// RecordGraphQuery counts one requirement-graph query by kind.
func RecordGraphQuery(kind string, duration time.Duration) {
	ensureInit()
	key := mapKey(kind)
	graphQueriesTotal.Add(key, 1)
	if duration > 0 {
		graphQueryLatencyMS.Add(key, duration.Milliseconds())
	}
}

func mapKey(kind string) string {
	key := strings.TrimSpace(strings.ToLower(kind))
	if key == "" {
		key = "unknown"
	}
	return key
}
