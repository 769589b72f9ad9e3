package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubeq/internal/language"
	"tubeq/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			results := preflight.RunAll(cmd.Context(), cfg)

			var lines []string
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			lines = append(lines, preflightLines(results, colorize)...)
			lines = append(lines, renderStatusLine("Subtitles", statusInfo, subtitleDetail(cfg.Downloads.Subtitles, cfg.Downloads.SubtitleLangs), colorize))
			lines = append(lines, renderStatusLine("Metrics", statusInfo, metricsDetail(cfg.Metrics.Enabled, cfg.Metrics.Bind), colorize))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			problems := len(preflight.Failed(results))
			for _, status := range statuses {
				if !status.Available && !status.Optional {
					problems++
				}
			}
			if problems > 0 {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

func metricsDetail(enabled bool, bind string) string {
	if !enabled {
		return "Disabled"
	}
	return fmt.Sprintf("Enabled (http://%s/metrics)", bind)
}

func subtitleDetail(enabled bool, langs []string) string {
	if !enabled {
		return "Disabled"
	}
	names := make([]string, 0, len(langs))
	for _, lang := range langs {
		names = append(names, language.DisplayName(lang))
	}
	return strings.Join(names, ", ")
}
