package kv

import (
	"github.com/ValentinKolb/gKV/cmd/util"
	"github.com/ValentinKolb/gKV/lib/driver"
	"github.com/spf13/cobra"
)

var (
	drv *driver.Driver

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform node operations against a gKV server",
		PersistentPreRunE: setupKVClient,
		PersistentPostRun: teardownKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(dataCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(killCmd)
	KeyValueCommands.AddCommand(orderCmd)
	KeyValueCommands.AddCommand(prevCmd)
	KeyValueCommands.AddCommand(nextNodeCmd)
	KeyValueCommands.AddCommand(prevNodeCmd)
	KeyValueCommands.AddCommand(incrCmd)
	KeyValueCommands.AddCommand(mergeCmd)
	KeyValueCommands.AddCommand(globalsCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient opens the driver connection for the command run
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	drv, err = util.NewRemoteDriver()
	return err
}

// teardownKVClient closes the driver, releasing the server-side session
func teardownKVClient(_ *cobra.Command, _ []string) {
	if drv != nil {
		_ = drv.Close()
	}
}
