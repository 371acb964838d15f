package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "sessionshard",
	Short: "sessionshard stores sessions across a weighted pool of Redis backends",
	Long: `sessionshard routes every session id to one member of a weighted pool of
Redis backends, failing writes (and reads whose connection broke) over to a
per-member failover address.

Every flag can also be set through the environment with the SESSIONSHARD_
prefix (e.g. SESSIONSHARD_SAVE_PATH), or in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initEnv()
		return viper.BindPFlags(cmd.Flags())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "YAML or JSON configuration file")
	flags.String("save-path", "", "Backend URLs, e.g. \"tcp://10.0.0.1:6379?weight=2&failover=10.0.0.9, unix:///run/redis.sock\"")
	flags.Duration("max-lifetime", 0, "Session lifetime used as TTL (default 24m0s)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (default info)")
	flags.String("lock-addr", "", "Redis address holding distributed session locks")
	flags.String("encryption-key", "", "32 byte AES key (hex or base64) encrypting stored values")
}

// initEnv loads .env files and maps SESSIONSHARD_* variables onto flags.
func initEnv() {
	loadDotEnv(".env", ".env.local")

	viper.SetEnvPrefix("sessionshard")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
