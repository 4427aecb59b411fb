package vetis

import "time"

// RetryPolicy is an explicit bounded-retry schedule. Delays[i] is slept
// before attempt i (so Delays[0] is usually zero). Sleep is swappable with
// a fake in tests.
type RetryPolicy struct {
	Delays []time.Duration
	Sleep  func(d time.Duration)
}

// Attempts returns the number of attempts the policy allows.
func (p RetryPolicy) Attempts() int { return len(p.Delays) }

// Wait sleeps the delay configured before attempt i (zero-based).
func (p RetryPolicy) Wait(i int) {
	if i >= len(p.Delays) || p.Delays[i] <= 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(p.Delays[i])
}

// DefaultSendPolicy retries a connection-level failure up to 3 times with
// linearly increasing backoff.
func DefaultSendPolicy() RetryPolicy {
	return RetryPolicy{Delays: []time.Duration{0, 2 * time.Second, 4 * time.Second}}
}

// DefaultPollPolicy waits 3s, 13s, 23s and 33s before the four result polls
// of a two-phase application.
func DefaultPollPolicy() RetryPolicy {
	return RetryPolicy{Delays: []time.Duration{
		3 * time.Second, 13 * time.Second, 23 * time.Second, 33 * time.Second,
	}}
}
