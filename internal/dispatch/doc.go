// Package dispatch implements the throttled broadcast dispatcher.
//
// Two loops share one delivery primitive: a fixed-count single-target loop
// and a deadline-bounded cyclic sweep over a captured recipient set. Both
// interleave three independent constraints without losing accounting
// accuracy: a wall-clock deadline (cyclic only), a minimum inter-send delay,
// and a transport-mandated cooldown that is only known after a failed
// attempt. Delivery is strictly sequential; the transport enforces global
// per-credential rate limits, so parallel sends would only buy more 429s.
package dispatch
