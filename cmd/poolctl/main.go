package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/json"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "poolctl",
		Short: "poolctl - object pool configuration and simulation tool",
		Long: `poolctl validates object pool configuration files and runs simulated
acquire/release workloads against them, reporting pool growth, throughput
and resource usage.`,
		SilenceUsage: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSimulateCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "poolctl v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newInitCmd() *cobra.Command {
	var keys []string
	var force bool

	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write a configuration file with default pools",
		Long: `Write a configuration file with one default pool per --pool key.

Example:
  poolctl init pools.yaml --pool spark --pool smoke`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			cfg := config.NewManagerConfig()
			for _, key := range keys {
				cfg.Pools = append(cfg.Pools, config.DefaultPoolConfig(key))
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s with %d pools\n", path, len(cfg.Pools))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&keys, "pool", []string{"default"}, "Pool keys to create")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var printCfg bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if printCfg {
				return json.MarshalToWriter(out, cfg, "  ")
			}
			fmt.Fprintf(out, "%s is valid: %d pools, init mode %s\n", args[0], len(cfg.Pools), cfg.InitMode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printCfg, "print", false, "Print the effective configuration, defaults applied, as JSON")
	return cmd
}
