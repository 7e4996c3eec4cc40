package kv

import (
	"fmt"

	"github.com/spf13/cobra"
)

// toSubs converts command-line arguments to driver subscripts
func toSubs(args []string) []interface{} {
	subs := make([]interface{}, len(args))
	for i, a := range args {
		subs[i] = a
	}
	return subs
}

var (
	dataCmd = &cobra.Command{
		Use:   "data [name] [subscripts...]",
		Short: "Classifies a node: 0 neither, 1 value, 10 descendants, 11 both",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.Data(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			fmt.Printf("data=%d\n", reply.Data)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [name] [subscripts...]",
		Short: "Reads the value of a node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.Get(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			if !reply.Defined {
				fmt.Println("defined=false")
				return nil
			}
			fmt.Printf("defined=true, value=%v\n", reply.Value)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [name] [subscripts...] [value]",
		Short: "Sets the value of a node (the last argument is the value)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			last := len(args) - 1
			if _, err := drv.Set(args[0], toSubs(args[1:last]), args[last]); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	killCmd = &cobra.Command{
		Use:   "kill [name] [subscripts...]",
		Short: "Removes a node and its subtree (--node-only keeps descendants)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeOnly, _ := cmd.Flags().GetBool("node-only")
			if _, err := drv.KillNode(args[0], toSubs(args[1:]), nodeOnly); err != nil {
				return err
			}
			fmt.Println("killed successfully")
			return nil
		},
	}
	orderCmd = &cobra.Command{
		Use:   "order [name] [subscripts...]",
		Short: "Returns the next sibling subscript in collation order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.Order(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			if !reply.Defined {
				fmt.Println("(end)")
				return nil
			}
			fmt.Printf("%v\n", reply.Result)
			return nil
		},
	}
	prevCmd = &cobra.Command{
		Use:   "prev [name] [subscripts...]",
		Short: "Returns the previous sibling subscript in collation order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.Previous(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			if !reply.Defined {
				fmt.Println("(end)")
				return nil
			}
			fmt.Printf("%v\n", reply.Result)
			return nil
		},
	}
	nextNodeCmd = &cobra.Command{
		Use:   "next [name] [subscripts...]",
		Short: "Returns the next node with a value in depth-first order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.NextNode(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			if !reply.Defined {
				fmt.Println("(end)")
				return nil
			}
			fmt.Printf("subscripts=%v, value=%v\n", reply.Subscripts, reply.Value)
			return nil
		},
	}
	prevNodeCmd = &cobra.Command{
		Use:   "prevnode [name] [subscripts...]",
		Short: "Returns the previous node with a value in depth-first order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := drv.PreviousNode(args[0], toSubs(args[1:])...)
			if err != nil {
				return err
			}
			if !reply.Defined {
				fmt.Println("(end)")
				return nil
			}
			fmt.Printf("subscripts=%v, value=%v\n", reply.Subscripts, reply.Value)
			return nil
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [name] [subscripts...]",
		Short: "Atomically increments a node (--delta, default 1)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, _ := cmd.Flags().GetString("delta")
			var d interface{}
			if delta != "" {
				d = delta
			}
			reply, err := drv.Increment(args[0], toSubs(args[1:]), d)
			if err != nil {
				return err
			}
			fmt.Printf("value=%v\n", reply.Value)
			return nil
		},
	}
	mergeCmd = &cobra.Command{
		Use:   "merge [source...] -- [destination...]",
		Short: "Copies the source subtree onto the destination node",
		Long:  "Copies the subtree at the source node onto the destination node. Source and destination are each a name followed by subscripts, separated by --.",
		RunE: func(cmd *cobra.Command, args []string) error {
			split := cmd.ArgsLenAtDash()
			if split < 1 || split >= len(args) {
				return fmt.Errorf("expected: merge <srcName> [srcSubs...] -- <dstName> [dstSubs...]")
			}
			src, dst := args[:split], args[split:]
			if _, err := drv.Merge(src[0], toSubs(src[1:]), dst[0], toSubs(dst[1:])); err != nil {
				return err
			}
			fmt.Println("merged successfully")
			return nil
		},
	}
	globalsCmd = &cobra.Command{
		Use:   "globals",
		Short: "Lists global names (--max, --lo, --hi restrict the listing)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			max, _ := cmd.Flags().GetUint64("max")
			lo, _ := cmd.Flags().GetString("lo")
			hi, _ := cmd.Flags().GetString("hi")
			list, err := drv.GlobalDirectory(max, lo, hi)
			if err != nil {
				return err
			}
			for _, name := range list {
				fmt.Println(name)
			}
			return nil
		},
	}
)

func init() {
	killCmd.Flags().Bool("node-only", false, "remove only the node's value, keep its descendants")
	incrCmd.Flags().String("delta", "", "the amount to add (canonical number, default 1)")
	globalsCmd.Flags().Uint64("max", 0, "maximum number of names to list (0 = no limit)")
	globalsCmd.Flags().String("lo", "", "lower bound of the listing")
	globalsCmd.Flags().String("hi", "", "upper bound of the listing")
}
