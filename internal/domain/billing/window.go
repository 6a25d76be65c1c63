package billing

import "time"

// DeferSpan is the window age below which a sub-unit charge is carried
// over instead of billed.
const DeferSpan = 2 * time.Minute

// PendingWindow is an in-flight span of traffic that has not been billed
// yet. Windows for the same forward merge by summing traffic and taking
// the union of their time spans, so merging duplicate samples is
// conservative in time even though traffic totals must not be replayed.
type PendingWindow struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Traffic   int64     `json:"traffic"`
}

func NewPendingWindow(start, end time.Time, traffic int64) PendingWindow {
	return PendingWindow{StartTime: start, EndTime: end, Traffic: traffic}
}

// Merge folds other into w: traffic sums, the span widens to the union.
func (w PendingWindow) Merge(other PendingWindow) PendingWindow {
	merged := w
	merged.Traffic += other.Traffic
	if other.StartTime.Before(merged.StartTime) || merged.StartTime.IsZero() {
		merged.StartTime = other.StartTime
	}
	if other.EndTime.After(merged.EndTime) {
		merged.EndTime = other.EndTime
	}
	return merged
}

// Span returns the window's duration.
func (w PendingWindow) Span() time.Duration {
	return w.EndTime.Sub(w.StartTime)
}

// ShouldDefer reports whether billing this window under p should wait for
// more traffic: the converted amount is under one priced unit and the
// window is still younger than DeferSpan.
func (w PendingWindow) ShouldDefer(p Price) bool {
	return p.Convert(w.Traffic) < 1 && w.Span() < DeferSpan
}
