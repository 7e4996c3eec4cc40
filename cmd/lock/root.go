package lock

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/gKV/cmd/util"
	"github.com/ValentinKolb/gKV/lib/driver"
	"github.com/spf13/cobra"
)

var (
	drv            *driver.Driver
	acquireTimeout int

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Perform lock operations against a gKV server",
		Long:              "Locks are scoped to the connection: they are released when the command exits. Use 'hold' to keep a lock while another process works, or 'try' to probe availability.",
		PersistentPreRunE: setupLockClient,
		PersistentPostRun: teardownLockClient,
	}

	// tryCmd acquires and immediately releases a lock
	tryCmd = &cobra.Command{
		Use:   "try [name] [subscripts...]",
		Short: "Probe whether a lock is currently available",
		Long:  "Acquires the lock and releases it again. Reports whether the acquisition succeeded within the timeout.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTry,
	}

	// holdCmd acquires a lock and keeps it until interrupted
	holdCmd = &cobra.Command{
		Use:   "hold [name] [subscripts...]",
		Short: "Acquire a lock and hold it until interrupted",
		Long:  "Acquires the lock and holds it until SIGINT or SIGTERM. The lock dies with the connection, so exiting this command always releases it.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHold,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(tryCmd)
	LockCommands.AddCommand(holdCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	// Add flags specific to acquire
	tryCmd.Flags().IntVar(&acquireTimeout, "timeout", 0, "How long to wait for the lock in seconds (-1 waits forever)")
	holdCmd.Flags().IntVar(&acquireTimeout, "timeout", 30, "How long to wait for the lock in seconds (-1 waits forever)")
}

// setupLockClient opens the driver connection for the command run
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	drv, err = util.NewRemoteDriver()
	return err
}

// teardownLockClient closes the driver, releasing all locks of the session
func teardownLockClient(_ *cobra.Command, _ []string) {
	if drv != nil {
		_ = drv.Close()
	}
}

// toSubs converts command-line arguments to driver subscripts
func toSubs(args []string) []interface{} {
	subs := make([]interface{}, len(args))
	for i, a := range args {
		subs[i] = a
	}
	return subs
}

// waitTimeout converts the --timeout flag to the driver's representation
func waitTimeout() time.Duration {
	if acquireTimeout < 0 {
		return -1
	}
	return time.Duration(acquireTimeout) * time.Second
}

// runTry handles the try lock command
func runTry(_ *cobra.Command, args []string) error {
	reply, err := drv.Lock(args[0], toSubs(args[1:]), waitTimeout())
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !reply.Acquired {
		fmt.Println("acquired=false")
		return nil
	}

	// Explicit release, even though closing the connection would do it too
	if _, err := drv.Unlock(args[0], toSubs(args[1:])...); err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}
	fmt.Println("acquired=true (released again)")

	return nil
}

// runHold handles the hold lock command
func runHold(_ *cobra.Command, args []string) error {
	reply, err := drv.Lock(args[0], toSubs(args[1:]), waitTimeout())
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !reply.Acquired {
		fmt.Println("acquired=false")
		return nil
	}

	fmt.Println("acquired=true, holding until interrupt...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if _, err := drv.Unlock(args[0], toSubs(args[1:])...); err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}
	fmt.Println("released")

	return nil
}
