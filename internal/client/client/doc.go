// Package client contains what the dashboard needs to reach the Mock
// Backend and to open its local state database.
//
// Backend is the contract the stores depend on. It is implemented in process
// by *backend.Service and remotely by GRPCClient, which maps gRPC status
// codes back onto the sentinel errors of package common so callers can keep
// using errors.Is.
//
// OpenStateDB opens the SQLite database holding the session slot and applies
// the embedded goose migrations.
package client
