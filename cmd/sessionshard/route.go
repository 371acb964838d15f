package main

import (
	"fmt"
	"os"

	"github.com/aretw0/sessionshard/internal/presentation/tui"
	"github.com/aretw0/sessionshard/pkg/pool"
	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route <session-id>",
	Short: "Show which member owns a session, without connecting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		m, pos, err := h.Pool().Route([]byte(args[0]))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s (member %d)\n", tui.Label("shard:   "), m.Addr(), m.Index())
		fmt.Fprintf(out, "%s %d / %d\n", tui.Label("position:"), pos, h.Pool().TotalWeight())
		fmt.Fprintf(out, "%s %s\n", tui.Label("key:     "), pool.StorageKey(m, args[0]))
		if m.HasFailover() {
			fmt.Fprintf(out, "%s %s\n", tui.Label("failover:"), m.Failover().Addr())
		}
		return nil
	},
}

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "List the pool members and their share of the key space",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		f, ok := cmd.OutOrStdout().(*os.File)
		terminal := ok && isTerminal(f)

		out, err := tui.NewRenderer(terminal)(tui.PoolTable(h.Pool()))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd, poolCmd)
}
