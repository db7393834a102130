package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xDevNinja/neuro-mesh/app"
	"github.com/0xDevNinja/neuro-mesh/appconfig"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "neuromeshd",
		Short: "Weight consensus and reward node for the neuro-mesh network",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the config file")

	rootCmd.AddCommand(
		initConfigCmd(&configPath),
		startCmd(&configPath),
		epochCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".neuromeshd", "config.yaml")
}

func initConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appconfig.WriteDefault(*configPath); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", *configPath)
			return nil
		},
	}
}

func startCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the node: seed the registry and drive epoch boundaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*configPath)
			if err != nil {
				return err
			}
			if problems := cfg.Validate(); len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(os.Stderr, "config error: "+p)
				}
				return fmt.Errorf("invalid config: %d problems", len(problems))
			}

			node, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer node.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := node.Bootstrap(ctx); err != nil {
				return err
			}
			return node.RunEpochLoop(ctx)
		},
	}
}

func epochCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "epoch",
		Short: "Print the epoch currently accepting submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*configPath)
			if err != nil {
				return err
			}
			node, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer node.Close()

			epoch, err := node.Consensus.GetCurrentEpoch(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%d\n", epoch)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}
