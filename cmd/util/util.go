package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/gKV/lib/driver"
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/rpc/client"
	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/serializer"
	"github.com/ValentinKolb/gKV/rpc/transport"
	"github.com/ValentinKolb/gKV/rpc/transport/tcp"
	"github.com/ValentinKolb/gKV/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the gKV server (host:port for tcp, a path for unix)"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The request timeout in seconds"))

	key = "retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry establishing the connection. Requests themselves are never retried"))

	key = "string-mode"
	cmd.PersistentFlags().Bool(key, false, WrapString("Surface all results as strings instead of converting canonical numbers"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("gkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:      viper.GetString("endpoint"),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("retries"),
		Serializer:    viper.GetString("serializer"),
		Compression:   viper.GetBool("compression"),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	return serializer.GetSerializer(viper.GetString("serializer"), viper.GetBool("compression"))
}

// GetClientTransport creates a client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s (must be tcp or unix)", viper.GetString("transport"))
	}
}

// NewRemoteDriver builds and opens a driver connected to the configured
// remote engine. The caller owns the driver and must Close it.
func NewRemoteDriver() (*driver.Driver, error) {
	config := GetClientConfig()

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := GetClientTransport()
	if err != nil {
		return nil, err
	}

	mode := engine.ModeCanonical
	if viper.GetBool("string-mode") {
		mode = engine.ModeString
	}

	cfg := driver.DefaultConfig()
	cfg.Implementation = engine.ImplRemote
	cfg.Engine = client.NewRemoteEngine(*config, t, s)
	cfg.Mode = mode

	d := driver.New(cfg)
	if err := d.Open(); err != nil {
		return nil, err
	}
	return d, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
