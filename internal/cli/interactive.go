package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tunelab/internal/common/fsutil"
	"tunelab/internal/hparams"
	"tunelab/internal/workflow"
)

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Choose model, dataset and hyperparameters with prompts, then train",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.prompter
			if p == nil {
				p = surveyPrompter{}
			}
			return runInteractive(cmd, a, p)
		},
	}
}

func runInteractive(cmd *cobra.Command, a *app, p Prompter) error {
	ctx := cmd.Context()
	ctrl, _, err := a.controller(ctx, nil)
	if err != nil {
		return err
	}
	models, err := ctrl.LoadAvailableModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("the training service offers no models")
	}

	model, err := p.Select(ctx, SelectConfig{Message: "Select a model", Options: models, PageSize: 10})
	if err != nil {
		return err
	}
	if err := ctrl.SelectModel(model); err != nil {
		return err
	}

	path, err := p.Input(ctx, InputConfig{
		Message: "Dataset file",
		Help:    "Accepted: " + strings.Join(workflow.AcceptedExtensions, " "),
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a dataset file is required")
			}
			_, _, err := fsutil.ReadLimited(s, a.cfg.MaxUploadBytes())
			return err
		},
	})
	if err != nil {
		return err
	}
	if err := selectDataset(a, ctrl, path); err != nil {
		return err
	}

	edit, err := p.Confirm(ctx, ConfirmConfig{Message: "Edit hyperparameters?"})
	if err != nil {
		return err
	}
	if edit {
		if err := editHyperparameters(cmd, ctrl, p); err != nil {
			return err
		}
	}

	ok, err := p.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Start training %s?", model), Default: true})
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.errOut, "cancelled")
		return nil
	}
	res, err := submitWithProgress(cmd, a, ctrl)
	if err != nil {
		return err
	}
	return printResult(a, res, false)
}

// editHyperparameters prompts once per field with the current value as
// default. Answers go through the field commit, so they are clamped.
func editHyperparameters(cmd *cobra.Command, ctrl *workflow.Controller, p Prompter) error {
	for _, g := range ctrl.Form().Groups {
		for _, f := range g.Fields {
			raw, err := p.Input(cmd.Context(), InputConfig{
				Message: fmt.Sprintf("%s / %s [%s..%s]", g.Title, f.Label, fmtNum(f.Min), fmtNum(f.Max)),
				Default: fmtNum(f.Value),
				Help:    f.Description,
				Validator: func(s string) error {
					_, err := hparams.ParseValue(s)
					return err
				},
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(raw) == fmtNum(f.Value) {
				continue
			}
			if _, err := f.Commit(raw); err != nil {
				return fmt.Errorf("%s.%s: %w", f.Group, f.Key, err)
			}
		}
	}
	return nil
}
