package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"easel/internal/config"
	"easel/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Canvas agent engine",
	Long: "easel drives a drawing agent over a shared 2D canvas: it streams a\n" +
		"language model's response into validated document edits and verifies the\n" +
		"result against the original instruction.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./easel.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(promptCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	switch cfg.Log.Level {
	case "debug":
		logging.SetLevel(logging.LevelDebug)
	case "info":
		logging.SetLevel(logging.LevelInfo)
	case "warn":
		logging.SetLevel(logging.LevelWarn)
	case "error":
		logging.SetLevel(logging.LevelError)
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	return cfg, nil
}
