// Package reactive provides observable values for push-based data feeds.
//
// A Value holds the last published item of a feed together with an
// "initialized" flag, so consumers can tell "no data yet" apart from an empty
// result. Observers are notified synchronously, in subscription order, every
// time a new item is published. Each observer sees a given publication at most
// once, including the catch-up delivery it receives when subscribing to an
// already initialized value.
//
// Values also track how many observers are currently attached. Hooks.OnActive
// runs when the count goes from zero to one and Hooks.OnInactive when it drops
// back to zero, which lets a producer register platform listeners only while
// somebody is interested. Hook calls never overlap and always alternate, even
// when observers attach and detach on different goroutines.
//
// Example Usage:
//
//	status := reactive.NewWithHooks[bool](reactive.Hooks{
//		OnActive:   startListening,
//		OnInactive: stopListening,
//	})
//	cancel := status.Observe(func(blocked bool) { ... })
//	defer cancel()
package reactive
