package metrics

import "github.com/prometheus/client_golang/prometheus"

// PayoutMetrics records seller payout activity by outcome.
type PayoutMetrics struct {
	processed *prometheus.CounterVec
	amount    *prometheus.CounterVec
}

// NewPayoutMetrics registers payout counters on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubswap",
		Name:      "payouts_processed_total",
		Help:      "Seller payouts processed, labelled by outcome.",
	}, []string{"status"})
	amount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubswap",
		Name:      "payouts_amount_total",
		Help:      "Total payout amount in major currency units, labelled by currency.",
	}, []string{"currency"})
	reg.MustRegister(processed, amount)
	return &PayoutMetrics{processed: processed, amount: amount}
}

// IncProcessed records a payout attempt with its final status.
func (p *PayoutMetrics) IncProcessed(status string) {
	if p == nil || p.processed == nil {
		return
	}
	p.processed.WithLabelValues(normalizeLabel(status)).Inc()
}

// AddAmount accumulates the paid amount for the given currency.
func (p *PayoutMetrics) AddAmount(currency string, amount float64) {
	if p == nil || p.amount == nil {
		return
	}
	if amount < 0 {
		return
	}
	p.amount.WithLabelValues(normalizeLabel(currency)).Add(amount)
}
