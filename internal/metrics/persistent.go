package metrics

var _ Metrics = (*Persistent)(nil)

// NewPersistent wraps inner so that counters are also kept in store.
func NewPersistent(inner Metrics, store MetricsStore) *Persistent {
	return &Persistent{inner: inner, store: store}
}

func (p *Persistent) IncTeamsGenerated(strategy string) {
	p.inner.IncTeamsGenerated(strategy)
	p.store.Increment(KeyTeamsGenerated)
	p.store.Increment(KeyTeamsGenerated + ":" + strategy)
}

func (p *Persistent) IncSchedulesGenerated(format string) {
	p.inner.IncSchedulesGenerated(format)
	p.store.Increment(KeySchedulesGenerated)
	p.store.Increment(KeySchedulesGenerated + ":" + format)
}

func (p *Persistent) IncResultsRecorded() {
	p.inner.IncResultsRecorded()
	p.store.Increment(KeyResultsRecorded)
}

func (p *Persistent) IncConflicts() {
	p.inner.IncConflicts()
	p.store.Increment(KeyConflicts)
}

func (p *Persistent) IncPublishFailed() {
	p.inner.IncPublishFailed()
	p.store.Increment(KeyPublishFailed)
}

func (p *Persistent) ObserveGenerationDuration(duration float64) {
	p.inner.ObserveGenerationDuration(duration)
}

func (p *Persistent) SetStartupTime(duration float64) {
	p.inner.SetStartupTime(duration)
}
