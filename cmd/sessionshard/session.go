package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Print the value of a session",
	Long: `Reads a session through the pool, failing over like any reader would.
The value is written raw when stdout is not a terminal, and quoted otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		data, err := h.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("session %q not found", args[0])
		}

		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			fmt.Fprintln(out, strconv.Quote(string(data)))
			return nil
		}
		_, err = out.Write(data)
		return err
	},
}

var setCmd = &cobra.Command{
	Use:   "set <session-id> [value]",
	Short: "Write a session",
	Long:  `Writes a session with the configured lifetime as TTL. Without a value (or with "-") the value is read from stdin.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value []byte
		if len(args) == 2 && args[1] != "-" {
			value = []byte(args[1])
		} else {
			var err error
			value, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}
		}

		h, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Write(cmd.Context(), args[0], value)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <session-id>",
	Aliases: []string{"destroy"},
	Short:   "Destroy a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Destroy(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(getCmd, setCmd, rmCmd)
}
