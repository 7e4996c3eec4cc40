// Package tcp implements TCP socket-based transport for the gKV remote
// engine binding. It provides concrete implementations of the base package's
// connector interfaces optimized for TCP connections.
//
// This package builds on the base package's transport functionality,
// inheriting its frame protocol, request correlation and session handling.
// See the base package documentation for detailed information on the
// underlying transport mechanisms.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector.
//     Disables Nagle's algorithm, the traffic is latency bound.
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// The default server buffer size is set to 512 KB, which comfortably holds a
// frame carrying a node value of maximum length.
package tcp
