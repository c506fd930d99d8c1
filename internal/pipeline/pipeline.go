package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/observability"
)

// ErrRefreshInProgress is returned when a refresh is triggered while another
// one is still running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// CredentialProvider yields the secret a Source needs.
type CredentialProvider interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

// Source reads the rows of a range, header first.
type Source interface {
	Fetch(ctx context.Context, creds domain.Credentials, rangeID string) ([]domain.RawRow, error)
}

// Publisher hands a finished run to a downstream consumer.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, run Run) error
}

// Status is the outcome of a run that did not fail.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Rejection records a row that was excluded from aggregation.
type Rejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Run is the result of one refresh.
type Run struct {
	ID          string              `json:"id"`
	StartedAt   time.Time           `json:"started_at"`
	Duration    time.Duration       `json:"duration_ns"`
	Status      Status              `json:"status"`
	Warning     string              `json:"warning,omitempty"`
	RowsFetched int                 `json:"rows_fetched"`
	Rejected    []Rejection         `json:"rejected,omitempty"`
	Report      *domain.DailyReport `json:"report,omitempty"`
}

// Settings configure what a refresh reads and how it aggregates.
type Settings struct {
	RangeID      string
	FetchTimeout time.Duration
	Windows      []domain.HourWindow
	Options      domain.AggregateOptions
	Normalizer   domain.Normalizer
}

// Pipeline runs the fetch-normalize-aggregate sequence for each refresh.
// Refreshes never overlap; the most recent run is kept for readers.
type Pipeline struct {
	credentials CredentialProvider
	source      Source
	publishers  []Publisher
	settings    Settings
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	running sync.Mutex
	latest  atomic.Pointer[Run]
}

// New creates a Pipeline with the given collaborators and observability.
func New(creds CredentialProvider, source Source, settings Settings, logger *slog.Logger, metrics *observability.Metrics, publishers ...Publisher) *Pipeline {
	return &Pipeline{
		credentials: creds,
		source:      source,
		publishers:  publishers,
		settings:    settings,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source. Pass nil to reset to real time.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// CheckReadiness returns nil once a refresh has completed without an
// authentication or fetch failure.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.latest.Load() == nil {
		return errors.New("no refresh has completed yet")
	}
	return nil
}

// Latest returns the most recent completed run.
func (p *Pipeline) Latest() (Run, bool) {
	run := p.latest.Load()
	if run == nil {
		return Run{}, false
	}
	return *run, true
}

// Refresh performs one full run. Authentication and fetch failures abort the
// run before aggregation and are returned as *domain.AuthenticationError or
// *domain.FetchError. A source with no data rows yields a StatusNoData run.
func (p *Pipeline) Refresh(ctx context.Context) (Run, error) {
	if !p.running.TryLock() {
		p.metrics.RefreshRuns.WithLabelValues("busy").Inc()
		return Run{}, ErrRefreshInProgress
	}
	defer p.running.Unlock()

	p.metrics.RefreshInProgress.Set(1)
	defer p.metrics.RefreshInProgress.Set(0)

	start := p.clock.Now()
	run := Run{ID: uuid.NewString(), StartedAt: start}
	logger := p.logger.With("run_id", run.ID)
	logger.Info("refresh started", "range", p.settings.RangeID)

	rows, err := p.fetch(ctx)
	if err != nil {
		outcome := "fetch_error"
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			outcome = "auth_error"
		}
		p.metrics.RefreshRuns.WithLabelValues(outcome).Inc()
		logger.Error("refresh aborted", "outcome", outcome, "error", err)
		return run, err
	}

	if len(rows) < 2 {
		run.Status = StatusNoData
		run.Warning = domain.ErrInsufficientData.Error()
		run.Duration = p.clock.Since(start)
		p.metrics.RefreshRuns.WithLabelValues(string(StatusNoData)).Inc()
		logger.Warn("refresh skipped aggregation", "rows", len(rows), "warning", run.Warning)
		p.latest.Store(&run)
		return run, nil
	}

	// The first row is the sheet header.
	data := rows[1:]
	run.RowsFetched = len(data)
	p.metrics.RowsFetched.Add(float64(len(data)))

	records, rejected := p.normalize(logger, data)
	run.Rejected = rejected

	report := domain.AggregateDay(0, records, p.settings.Windows, p.settings.Options)
	run.Report = &report
	run.Status = StatusOK
	run.Duration = p.clock.Since(start)

	p.recordReport(report)
	p.metrics.RefreshRuns.WithLabelValues(string(StatusOK)).Inc()
	p.metrics.RefreshDuration.Observe(run.Duration.Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	logger.Info("refresh finished",
		"rows", run.RowsFetched,
		"rejected", len(run.Rejected),
		"windows", len(report.Windows),
		"total_revenue", report.TotalRevenue,
		"duration", run.Duration,
	)

	p.publish(ctx, logger, run)
	p.latest.Store(&run)
	return run, nil
}

// fetch acquires credentials and reads the configured range under the fetch
// timeout. Credential failures never reach the source.
func (p *Pipeline) fetch(ctx context.Context) ([]domain.RawRow, error) {
	if p.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.settings.FetchTimeout)
		defer cancel()
	}

	creds, err := p.credentials.Credentials(ctx)
	if err != nil {
		return nil, asAuthError(err)
	}

	rows, err := p.source.Fetch(ctx, creds, p.settings.RangeID)
	if err != nil {
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &domain.FetchError{Range: p.settings.RangeID, Err: err}
	}
	return rows, nil
}

// publish hands the run to every publisher. A publish failure is logged and
// counted; the run itself already succeeded.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, run Run) {
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, run); err != nil {
			p.metrics.PublishErrors.WithLabelValues(pub.Name()).Inc()
			logger.Error("publish report failed", "publisher", pub.Name(), "error", err)
		}
	}
}

func (p *Pipeline) recordReport(report domain.DailyReport) {
	p.metrics.DailyRevenue.Set(float64(report.TotalRevenue))
	for _, w := range report.Windows {
		p.metrics.WindowRevenue.WithLabelValues(w.Window.String()).Set(float64(w.Revenue))
		p.metrics.WindowPassengers.WithLabelValues(w.Window.String()).Set(float64(w.Passengers()))
	}
}

func asAuthError(err error) error {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}
	return &domain.AuthenticationError{Err: err}
}
