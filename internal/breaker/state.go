package breaker

// refreshLocked applies the breaker's state-refresh rule. It must be called
// with cb.mu held. An Open breaker becomes eligible for Half-Open either
// because RetryTime has elapsed since it opened, or because RejectedThreshold
// rejections have accumulated while Open — whichever comes first.
func (cb *Breaker) refreshLocked() {
	if cb.state != Open {
		return
	}
	elapsed := cb.cfg.Clock.Now().After(cb.halfOpenAt)
	rejectedOut := cb.rejectedCount >= cb.cfg.RejectedThreshold
	if elapsed || rejectedOut {
		cb.state = HalfOpen
		cb.rejectedCount = 0
	}
}

// tripLocked moves a Closed breaker to Open. Must be called with cb.mu held.
func (cb *Breaker) tripLocked() {
	cb.state = Open
	cb.failureCount = 0
	cb.rejectedCount = 0
	cb.halfOpenAt = cb.cfg.Clock.Now().Add(cb.cfg.RetryTime)
}

// recordFailureLocked applies a failed outcome to the state machine. Must be
// called with cb.mu held.
func (cb *Breaker) recordFailureLocked() {
	switch cb.state {
	case Closed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.AllowedFails {
			cb.tripLocked()
		}
	case HalfOpen:
		// The probe failed: the downstream is still unhealthy, reopen.
		cb.tripLocked()
	case Open:
		// mark_failure can be called on an already-open breaker (the retry
		// policy does this between attempts); it only keeps the failure
		// count visible for diagnostics, it can't re-trip an open breaker.
		cb.failureCount++
	}
}

// recordSuccessLocked applies a successful outcome. Must be called with
// cb.mu held.
func (cb *Breaker) recordSuccessLocked() {
	switch cb.state {
	case Closed:
		cb.failureCount = 0
	case HalfOpen:
		cb.state = Closed
		cb.failureCount = 0
		cb.rejectedCount = 0
	case Open:
		// A success while Open arrives through MarkSuccess, or from a Call
		// whose fn was admitted before another caller tripped the breaker
		// (Call releases the lock while fn runs); treat it the same as a
		// successful probe.
		cb.state = Closed
		cb.failureCount = 0
		cb.rejectedCount = 0
	}
}
