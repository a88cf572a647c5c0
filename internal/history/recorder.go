package history

import (
	"context"
	"time"

	"github.com/washtower/zeo-core/internal/zeo"
)

// recordTimeout bounds each history insert so a slow disk never stalls
// the merge path for long.
const recordTimeout = 5 * time.Second

// MetricsWriter receives numeric attribute values for time-series
// storage. Satisfied by the influxdb client.
type MetricsWriter interface {
	WriteAttributeMetric(duid, attribute string, value float64)
}

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Recorder persists merged attribute values.
//
// It is registered as a coordinator merge listener: every merge lands in
// the SQLite audit trail, and numeric values additionally flow to the
// metrics writer when one is attached. Persistence failures are logged
// and never propagate into the refresh path.
type Recorder struct {
	repo    Repository
	metrics MetricsWriter
	logger  Logger
	duid    string
	source  string
}

// NewRecorder creates a recorder for one device.
func NewRecorder(repo Repository, duid string) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: noopLogger{},
		duid:   duid,
		source: SourcePoll,
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMetricsWriter attaches a time-series sink for numeric values.
func (r *Recorder) SetMetricsWriter(w MetricsWriter) {
	r.metrics = w
}

// Record persists one batch of merged values. Compatible with
// coordinator.Listener.
func (r *Recorder) Record(changed map[zeo.Protocol]any) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	for protocol, value := range changed {
		if err := r.repo.RecordAttribute(ctx, r.duid, string(protocol), value, r.source); err != nil {
			r.logger.Warn("recording attribute history failed",
				"attribute", protocol,
				"error", err)
		}

		if r.metrics == nil {
			continue
		}
		if f, ok := toFloat(value); ok {
			r.metrics.WriteAttributeMetric(r.duid, string(protocol), f)
		}
	}
}

// toFloat extracts a numeric value for metric export. Booleans count as
// 1/0 so toggles chart cleanly; strings do not.
func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
