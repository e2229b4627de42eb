// Package journal persists sweep history in SQLite: one row per sweep
// invocation and one per dispatched simulation. The journal is optional;
// the authoritative ID-to-parameters record is the mapping artifact the
// sweep itself writes.
package journal
