package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics records loyalty ledger outcomes.
type LedgerMetrics struct {
	salesRecorded   prometheus.Counter
	pointsEarned    prometheus.Counter
	redemptions     prometheus.Counter
	pointsRedeemed  prometheus.Counter
	inconsistencies *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	salesRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sales_recorded",
		Help: "Sales recorded successfully.",
	})
	pointsEarned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_points_earned",
		Help: "Points credited by completed sales.",
	})
	redemptions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_redemptions",
		Help: "Prize redemptions recorded successfully.",
	})
	pointsRedeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_points_redeemed",
		Help: "Points debited by redemptions.",
	})
	inconsistencies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_inconsistencies",
		Help: "Partial writes requiring manual reconciliation.",
	}, []string{"kind"})
	reg.MustRegister(salesRecorded, pointsEarned, redemptions, pointsRedeemed, inconsistencies)
	return &LedgerMetrics{
		salesRecorded:   salesRecorded,
		pointsEarned:    pointsEarned,
		redemptions:     redemptions,
		pointsRedeemed:  pointsRedeemed,
		inconsistencies: inconsistencies,
	}
}

// ObserveSale records a completed sale and the points it credited.
func (m *LedgerMetrics) ObserveSale(points int) {
	if m == nil || m.salesRecorded == nil {
		return
	}
	m.salesRecorded.Inc()
	m.pointsEarned.Add(float64(points))
}

// ObserveRedemption records a completed redemption and the points it debited.
func (m *LedgerMetrics) ObserveRedemption(points int) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.Inc()
	m.pointsRedeemed.Add(float64(points))
}

// IncInconsistency counts a partial write by kind (sale or redemption).
func (m *LedgerMetrics) IncInconsistency(kind string) {
	if m == nil || m.inconsistencies == nil {
		return
	}
	m.inconsistencies.WithLabelValues(normalizeLabel(kind)).Inc()
}
