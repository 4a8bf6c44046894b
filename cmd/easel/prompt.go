package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"easel/internal/action"
	"easel/internal/canvas"
	"easel/internal/llm"
	"easel/internal/logging"
	"easel/internal/schedule"
	"easel/pkg/types"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <instruction>",
	Short: "Run one instruction against a fresh in-memory canvas",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		streamer, err := llm.NewOpenAIClient(llm.Config{
			BaseURL:     cfg.Model.BaseURL,
			APIKey:      cfg.Model.APIKey,
			Model:       cfg.Model.Name,
			Temperature: cfg.Model.Temperature,
			Timeout:     cfg.Model.Timeout,
		}, logging.NewComponentLogger("llm"))
		if err != nil {
			return err
		}

		doc := canvas.NewMemoryDocument()
		sched := schedule.New(streamer, action.Builtin(), doc,
			logging.NewComponentLogger("schedule"),
			schedule.WithMaxTurns(cfg.Run.MaxTurns))

		instruction := strings.Join(args, " ")
		return runPrompt(cmd, sched, doc, instruction)
	},
}

func runPrompt(cmd *cobra.Command, sched *schedule.Scheduler, doc *canvas.MemoryDocument, instruction string) error {
	out := cmd.OutOrStdout()
	kindColor := color.New(color.FgCyan)
	okColor := color.New(color.FgGreen)
	warnColor := color.New(color.FgYellow)

	result, err := sched.Prompt(cmd.Context(), instruction, nil, func(env types.Envelope) {
		if !env.Complete {
			return
		}
		kindColor.Fprintf(out, "%-8s", env.Action.Kind)
		summary := env.Action.Intent
		if summary == "" {
			summary = env.Action.Message
		}
		fmt.Fprintf(out, " %s (%dms)\n", summary, env.ElapsedMs)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nrun %s: %d turns, %d actions applied\n", result.RunID, result.Turns, result.Applied)
	if result.Verdict.IsComplete {
		okColor.Fprintln(out, "instruction satisfied")
	} else {
		warnColor.Fprintf(out, "unsatisfied: %s\n", strings.Join(result.Verdict.Unsatisfied, "; "))
	}

	shapes := doc.ListShapes(nil)
	fmt.Fprintf(out, "canvas: %d shapes\n", len(shapes))
	for _, shape := range shapes {
		fmt.Fprintf(out, "  %s %s %q at (%.0f, %.0f) %gx%g\n",
			shape.ID, shape.Kind, shape.Text, shape.Bounds.X, shape.Bounds.Y, shape.Bounds.W, shape.Bounds.H)
	}
	return nil
}
