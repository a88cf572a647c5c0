// Package history records merged attribute values for audit and charting.
//
// Two sinks: a SQLite table that keeps a bounded local trail of every
// merge, and an optional time-series writer for numeric values. Both are
// fed by a coordinator merge listener, so history is a pure observer of
// the refresh loop and can be disabled without touching it.
package history
