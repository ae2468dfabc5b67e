package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/voxlate/internal/cli"
	"codeberg.org/snonux/voxlate/internal/models"
	"codeberg.org/snonux/voxlate/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx := cmd.Context()

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey())
		return lister.ListAvailableModels(ctx, cmd.OutOrStdout())
	}

	mode := processor.ModeCLI
	switch {
	case flags.BatchFile != "" || len(args) > 0:
	case flags.TUIMode || viper.GetString("ui.mode") == "tui":
		mode = processor.ModeTUI
	default:
		mode = processor.ModeGUI
	}

	// Create processor
	proc, err := processor.NewProcessor(flags, mode)
	if err != nil {
		return err
	}
	defer proc.Close()

	switch {
	case flags.BatchFile != "":
		return proc.ProcessBatch(ctx)
	case len(args) > 0:
		return proc.ProcessText(ctx, args[0])
	case mode == processor.ModeTUI:
		if err := proc.RunTUIMode(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logs written to %s\n", processor.LogFilePath())
		return nil
	default:
		// No input provided - launch GUI mode by default
		return proc.RunGUIMode(ctx)
	}
}
