package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for a gKV engine server.
type ServerConfig struct {
	// Endpoint is the listen address (host:port for tcp, a path for unix).
	Endpoint string

	// TimeoutSecond bounds reads and writes on a connection. Zero disables
	// the deadline: sessions stay open as long as the client does.
	TimeoutSecond int64

	// Serializer names the wire codec (binary, json, gob).
	Serializer string

	// Compression enables s2 payload compression.
	Compression bool

	// GlobalDirectory is the default directory selector handed to new
	// sessions.
	GlobalDirectory string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Serializer", c.Serializer)
	addField("Compression", strconv.FormatBool(c.Compression))

	addSection("Engine")
	addField("Global Directory", c.GlobalDirectory)

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the parameters of one client connection. A connection
// carries exactly one engine session: the server keeps per-connection locals,
// locks and directory selector, so there is no connection pooling.
type ClientConfig struct {
	// Endpoint is the server address (host:port for tcp, a path for unix).
	Endpoint string

	// TimeoutSecond bounds every request round trip. Zero waits unboundedly.
	TimeoutSecond int

	// RetryCount bounds connection-establishment attempts (not request
	// retries: engine operations are not idempotent).
	RetryCount int

	// Serializer names the wire codec (binary, json, gob). Must match the
	// server.
	Serializer string

	// Compression enables s2 payload compression. Must match the server.
	Compression bool
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Serializer", c.Serializer)
	addField("Compression", strconv.FormatBool(c.Compression))

	return sb.String()
}
