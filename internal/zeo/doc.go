// Package zeo defines the washer protocol catalog and transport contract.
//
// The catalog is the single source of truth for which attributes exist,
// which polling tier each belongs to, and how values coerce on the way
// in (boolean attributes) and out (integer command values). Everything
// else in the system (coordinator, gateway, API, history) keys off it.
//
// Tiers:
//   - frequent: polled every tick (run state, countdowns)
//   - infrequent: polled on a long cadence (diagnostics)
//   - manual: never polled; settings and command triggers
package zeo
