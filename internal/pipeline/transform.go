package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// normalize converts each data row, skipping rows that fail to parse. A bad
// row is logged and counted but never stops the batch.
func (p *Pipeline) normalize(logger *slog.Logger, rows []domain.RawRow) ([]domain.NormalizedRecord, []Rejection) {
	records := make([]domain.NormalizedRecord, 0, len(rows))
	var rejected []Rejection

	for _, row := range rows {
		rec, err := p.settings.Normalizer.Normalize(row)
		if err != nil {
			reason := domain.RejectReason(err)
			logger.Warn("row rejected, skipping",
				"line", row.Line,
				"reason", reason,
				"error", err,
			)
			p.metrics.RowsRejected.WithLabelValues(reason).Inc()
			rejected = append(rejected, Rejection{Line: row.Line, Reason: reason, Error: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	return records, rejected
}
