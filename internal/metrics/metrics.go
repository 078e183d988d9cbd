package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/k-negishi/calendar-event-loader/internal/domain"
)

const namespace = "event_loader"

// Recorder 読み込み結果のカウンター
type Recorder struct {
	registry *prometheus.Registry

	eventsLoaded    *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec
	loadFailures    *prometheus.CounterVec
}

// NewRecorder 専用のレジストリにカウンターを登録して作成
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		eventsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_loaded_total",
			Help:      "Number of events loaded successfully.",
		}, []string{"source"}),
		recordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Number of records that failed validation.",
		}, []string{"source"}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Number of failed load operations by reason.",
		}, []string{"source", "reason"}),
	}
	r.registry.MustRegister(r.eventsLoaded, r.recordsRejected, r.loadFailures)
	return r
}

// Registry Gathererとして使うためのレジストリ
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveLoaded 成功した読み込みを記録
func (r *Recorder) ObserveLoaded(source string, events int) {
	r.eventsLoaded.WithLabelValues(source).Add(float64(events))
}

// ObserveFailure 失敗した読み込みを記録
func (r *Recorder) ObserveFailure(source string, err error) {
	var loadErr *domain.LoadError
	if errors.As(err, &loadErr) {
		r.recordsRejected.WithLabelValues(source).Add(float64(len(loadErr.Errors)))
	}
	r.loadFailures.WithLabelValues(source, Reason(err)).Inc()
}

// WriteTextfile node_exporterのtextfile collector形式でファイルに書き出す
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Totals メトリクス名ごとにラベルを合算した値
func (r *Recorder) Totals() (map[string]float64, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			totals[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	return totals, nil
}

// Reason エラーをラベル用の短い理由に分類する
func Reason(err error) string {
	var loadErr *domain.LoadError
	switch {
	case errors.As(err, &loadErr):
		return "invalid_records"
	case errors.Is(err, domain.ErrFileNotFound):
		return "file_not_found"
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, domain.ErrWrongShape):
		return "wrong_shape"
	case errors.Is(err, domain.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, domain.ErrCannotOpen):
		return "cannot_open"
	}
	return "other"
}
