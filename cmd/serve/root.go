package serve

import (
	"fmt"
	"net/http"
	"strings"

	cmdUtil "github.com/ValentinKolb/gKV/cmd/util"
	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/serializer"
	"github.com/ValentinKolb/gKV/rpc/server"
	"github.com/ValentinKolb/gKV/rpc/transport"
	"github.com/ValentinKolb/gKV/rpc/transport/tcp"
	"github.com/ValentinKolb/gKV/rpc/transport/unix"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the gKV server",
		Long:    `Start the gKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is GKV_<flag> (e.g. GKV_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a path for unix)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Per-connection read/write timeout in seconds. 0 keeps idle sessions open indefinitely"))

	key = "global-directory"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The default directory selector handed to new sessions. Clients can switch their own session via the $zgbldir intrinsic"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address for the Prometheus metrics endpoint (e.g. localhost:9100). Empty disables metrics"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.Compression = viper.GetBool("compression")
	serveCmdConfig.GlobalDirectory = viper.GetString("global-directory")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the gKV server
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	// parse the serializer
	s, err := serializer.GetSerializer(serveCmdConfig.Serializer, serveCmdConfig.Compression)
	if err != nil {
		return err
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "tcp":
		t = tcp.NewTCPDefaultServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport(64 * 1024)
	default:
		return fmt.Errorf("invalid transport %s (must be tcp or unix)", viper.GetString("transport"))
	}

	// Expose metrics if configured
	if addr := viper.GetString("metrics-endpoint"); addr != "" {
		go serveMetrics(addr)
	}

	serv := server.NewRPCServer(
		nil,
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// serveMetrics exposes the process metrics in Prometheus text format
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Printf("metrics endpoint failed: %v\n", err)
	}
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("gkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
