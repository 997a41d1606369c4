// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting agent trace streams and persisted chat history.
// They are not intended for production usage.
package testutil
