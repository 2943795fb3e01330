package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// TraceparentHeader is the W3C Trace Context request header.
const TraceparentHeader = "traceparent"

// {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)

type traceparent struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// parseTraceparent validates a traceparent header. Version ff and all-zero
// identifiers are rejected.
func parseTraceparent(header string) (traceparent, bool) {
	m := traceparentRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(header)))
	if m == nil {
		return traceparent{}, false
	}
	if m[1] == "ff" || strings.Trim(m[2], "0") == "" || strings.Trim(m[3], "0") == "" {
		return traceparent{}, false
	}
	return traceparent{
		TraceID: m[2],
		SpanID:  m[3],
		Sampled: m[4][1]&1 == 1,
	}, true
}

// resource returns the Cloud Trace resource name, or the bare trace ID when
// no project is configured.
func (tp traceparent) resource(projectID string) string {
	if projectID == "" {
		return tp.TraceID
	}
	return "projects/" + projectID + "/traces/" + tp.TraceID
}

func (tp traceparent) fields(projectID string) []zap.Field {
	if projectID == "" {
		return []zap.Field{
			zap.String("traceId", tp.TraceID),
			zap.String("spanId", tp.SpanID),
			zap.Bool("traceSampled", tp.Sampled),
		}
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", tp.resource(projectID)),
		zap.String("logging.googleapis.com/spanId", tp.SpanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tp.Sampled),
	}
}
