/*
Package resilience provides a circuit breaker for outbound calls.

The statistics upload sink sits behind a breaker so an unreachable collector
does not stall screen rendering with retries on every event.

# States

	Closed --[Threshold consecutive failures]-> Open --[Cooldown]-> Half-Open
	Half-Open --[trial succeeds]-> Closed
	Half-Open --[trial fails]-> Open

While open, Do returns ErrOpen without calling through. Half-open admits one
trial call at a time.

# Usage

	b := resilience.New("stats-upload", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	})
	err := b.Do(func() error {
		return upload(ctx, event)
	})
*/
package resilience
