package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	nandabridge "github.com/jinutvm/nanda-adapter-sdk"
)

// cliOptions collects the persistent flags.
type cliOptions struct {
	configPath string
	python     string
	script     string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "nanda-bridge",
		Short:         "Supervise a NANDA bridge worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to TOML config file")
	root.PersistentFlags().StringVar(&opts.python, "python", "", "path to python interpreter")
	root.PersistentFlags().StringVar(&opts.script, "script", "", "path to bridge script")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newImproveCommand(opts),
		newStatusCommand(opts),
		newServeCommand(opts),
		newCommandsCommand(),
	)

	return root
}

// bridgeOptions merges flags and config into bridge options.
func bridgeOptions(opts *cliOptions) ([]nandabridge.Option, *fileConfig, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	bopts := []nandabridge.Option{nandabridge.WithLogger(logger)}

	if python := firstNonEmpty(opts.python, cfg.Python); python != "" {
		bopts = append(bopts, nandabridge.WithPythonPath(python))
	}

	if script := firstNonEmpty(opts.script, cfg.Script); script != "" {
		bopts = append(bopts, nandabridge.WithScriptPath(script))
	}

	if cfg.CommandTimeoutSeconds > 0 {
		bopts = append(bopts, nandabridge.WithCommandTimeout(time.Duration(cfg.CommandTimeoutSeconds)*time.Second))
	}

	if cfg.InitTimeoutSeconds > 0 {
		bopts = append(bopts, nandabridge.WithInitTimeout(time.Duration(cfg.InitTimeoutSeconds)*time.Second))
	}

	return bopts, cfg, nil
}

// withBridge starts a bridge, runs fn, and stops the bridge afterwards.
func withBridge(ctx context.Context, opts *cliOptions, fn func(nandabridge.Bridge) error) error {
	bopts, _, err := bridgeOptions(opts)
	if err != nil {
		return err
	}

	b := nandabridge.New()

	if err := b.Start(ctx, bopts...); err != nil {
		return err
	}

	defer func() {
		_ = b.Stop(context.Background())
	}()

	return fn(b)
}

func newImproveCommand(opts *cliOptions) *cobra.Command {
	var logic string

	cmd := &cobra.Command{
		Use:   "improve <message>",
		Short: "Run a message through the worker's improvement logic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(cmd.Context(), opts, func(b nandabridge.Bridge) error {
				if logic != "" {
					if err := b.RegisterLogic(cmd.Context(), logic); err != nil {
						return err
					}
				}

				improved, err := b.TestImprovement(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), improved)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&logic, "logic", "", "improvement logic to register first")

	return cmd
}

func newStatusCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the worker's status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(cmd.Context(), opts, func(b nandabridge.Bridge) error {
				status, err := b.GetStatus(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "bridge running:    %v\n", status.BridgeRunning)
				fmt.Fprintf(out, "nanda initialized: %v\n", status.NandaInitialized)
				fmt.Fprintf(out, "server running:    %v\n", status.ServerRunning)
				fmt.Fprintf(out, "logic registered:  %v\n", status.ImprovementLogicRegistered)

				return nil
			})
		},
	}
}

func newServeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the worker's API server and wait",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bopts, cfg, err := bridgeOptions(opts)
			if err != nil {
				return err
			}

			if cfg.Server.AnthropicKey == "" || cfg.Server.Domain == "" {
				return fmt.Errorf("serve requires server.anthropic_key and server.domain in the config file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := nandabridge.New()

			if err := b.Start(ctx, bopts...); err != nil {
				return err
			}

			defer func() {
				_ = b.Stop(context.Background())
			}()

			sub := b.OnEvent("server_error", func(name string, data map[string]any) {
				fmt.Fprintf(cmd.ErrOrStderr(), "server error: %v\n", data["error"])
			})
			defer b.OffEvent(sub)

			link, err := b.StartServerAPI(ctx, nandabridge.ServerAPIConfig{
				AnthropicKey: cfg.Server.AnthropicKey,
				Domain:       cfg.Server.Domain,
				AgentID:      cfg.Server.AgentID,
				Port:         cfg.Server.Port,
				APIPort:      cfg.Server.APIPort,
				Registry:     cfg.Server.Registry,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "enrollment link:", link)
			fmt.Fprintln(cmd.OutOrStdout(), "serving, press ctrl-c to stop")

			<-ctx.Done()

			return nil
		},
	}
}

func newCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the command vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range nandabridge.Commands() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
