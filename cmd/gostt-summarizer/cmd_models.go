package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chaz8081/gostt-summarizer/internal/interactive"
	"github.com/chaz8081/gostt-summarizer/internal/models"
)

func newModelsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage whisper speech models",
	}
	cmd.AddCommand(newModelsListCommand(a), newModelsDownloadCommand(a))
	return cmd
}

func newModelsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List downloadable whisper models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configured := filepath.Base(a.cfg.Transcribe.ModelPath)
			for _, m := range models.Catalog {
				mark := " "
				if m.File == configured {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-8s %-18s %5d MB  %s\n", mark, m.Name, m.File, m.SizeMB, m.Note)
			}
			return nil
		},
	}
}

func newModelsDownloadCommand(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download [model]",
		Short: "Download a whisper model (asks which one when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = filepath.Dir(a.cfg.Transcribe.ModelPath)
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
				var err error
				if name, err = pickModel(a, dir, cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			m, ok := models.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown model %q (available: %v)", name, models.Names())
			}

			path, err := models.NewDownloader("", cmd.OutOrStdout()).Download(cmd.Context(), m, dir)
			if err != nil {
				return err
			}

			if path != a.cfg.Transcribe.ModelPath {
				fmt.Fprintf(cmd.OutOrStdout(), "  Set transcribe.model_path to %s to use this model.\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "destination directory (default: directory of transcribe.model_path)")
	return cmd
}

// pickModel asks for a model on a terminal and falls back to the model
// named in the config otherwise. dir is where the download will go.
func pickModel(a *app, dir string, out io.Writer) (string, error) {
	configured := filepath.Base(a.cfg.Transcribe.ModelPath)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if _, ok := models.Lookup(configured); ok {
			return configured, nil
		}
		return "base", nil
	}

	fmt.Fprintf(out, "Models will be downloaded to: %s\n\n", dir)
	choices := make([]interactive.Choice, len(models.Catalog))
	for i, m := range models.Catalog {
		choices[i] = interactive.Choice{
			Label: fmt.Sprintf("%s (~%d MB) - %s", m.Name, m.SizeMB, m.Note),
			Value: m.Name,
		}
	}
	return interactive.NewHuhPrompter(os.Stdin, out).Select("Which whisper model?", choices)
}
