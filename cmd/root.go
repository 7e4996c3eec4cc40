package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/gKV/cmd/kv"
	"github.com/ValentinKolb/gKV/cmd/lock"
	"github.com/ValentinKolb/gKV/cmd/serve"
	"github.com/ValentinKolb/gKV/cmd/util"
	"github.com/ValentinKolb/gKV/lib/driver"
	"github.com/spf13/cobra"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "gkv",
		Short: "hierarchical key-value engine",
		Long: fmt.Sprintf(`%s

A hierarchical key-value engine with M-style collation, traversal and
transactions. Runs in-process or as a server, with a driver that speaks
the same interface to both.`, driver.Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(driver.Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "compression"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("s2-compress messages on the wire (client and server must agree)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
