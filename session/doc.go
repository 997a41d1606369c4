// Package session houses concrete implementations of core.LogStore, the
// persistence contract for replay logs. The interface itself lives in the
// core package so higher level packages (runner, cmd) do not depend on
// concrete storage.
//
// InMemoryStore is provided here; the sqlite sub-package persists logs in a
// SQLite database. Additional backends go into further sub-packages without
// changing any calling code, only the wiring layer decides which
// implementation to instantiate.
package session
