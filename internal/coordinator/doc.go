// Package coordinator implements the tiered refresh loop at the heart of
// Zeo Core.
//
// One coordinator owns one device's state cache. It polls frequent-tier
// attributes every tick, infrequent-tier attributes on a long cadence,
// and leaves manual-tier attributes alone after the one-time initial
// load. Consumers read from the cache without triggering I/O and learn
// about changes through merge listeners.
//
// Failure policy: a query failure never empties the cache. Stale values
// stay readable indefinitely and the LastUpdateSucceeded flag is the
// only signal that refreshes are failing. Command writes are the
// exception; their failures return to the caller.
package coordinator
