package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tunelab/internal/common/fsutil"
	"tunelab/internal/hparams"
	"tunelab/internal/progress"
	"tunelab/internal/workflow"
	"tunelab/pkg/types"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		model   string
		dataset string
		sets    []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:     "train",
		Short:   "Upload a dataset and start a training job",
		Example: "  tunelab train --model llama2-7b --dataset ./train.jsonl --set lora_config.r=32 --set training_params.learning_rate=1e-4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, _, err := a.controller(ctx, nil)
			if err != nil {
				return err
			}
			if _, err := ctrl.LoadAvailableModels(ctx); err != nil {
				return err
			}
			if err := ctrl.SelectModel(strings.TrimSpace(model)); err != nil {
				return fmt.Errorf("%w (see `tunelab models`)", err)
			}
			if err := selectDataset(a, ctrl, dataset); err != nil {
				return err
			}
			for _, s := range sets {
				if err := applyAssignment(a, ctrl, s); err != nil {
					return err
				}
			}
			res, err := submitWithProgress(cmd, a, ctrl)
			if err != nil {
				return err
			}
			return printResult(a, res, asJSON)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model id (required)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset file path (required)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Hyperparameter override group.key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// selectDataset reads path within the upload limit and selects it.
func selectDataset(a *app, ctrl *workflow.Controller, path string) error {
	name, data, err := fsutil.ReadLimited(path, a.cfg.MaxUploadBytes())
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if !workflow.IsAcceptedExtension(name) {
		a.log.Warn().Str("file", name).Strs("accepted", workflow.AcceptedExtensions).Msg("unusual dataset extension; the service may reject it")
	}
	ctrl.SelectDatasetFile(workflow.DatasetFile{Name: name, Data: data})
	return nil
}

// applyAssignment applies one group.key=value override, reporting clamps.
func applyAssignment(a *app, ctrl *workflow.Controller, s string) error {
	group, key, x, err := hparams.ParseAssignment(s)
	if err != nil {
		return err
	}
	got, err := ctrl.SetHyperparameter(group, key, x)
	if err != nil {
		return err
	}
	if got != x {
		a.log.Warn().Str("param", group+"."+key).Float64("requested", x).Float64("applied", got).Msg("value clamped into bounds")
	}
	return nil
}

// submitWithProgress shows the progress indicator while the submission runs.
func submitWithProgress(cmd *cobra.Command, a *app, ctrl *workflow.Controller) (types.SubmissionResult, error) {
	snap := ctrl.Snapshot()
	if err := snap.Hyperparameters.Validate(ctrl.Schema()); err != nil {
		return types.SubmissionResult{}, err
	}
	ind := progress.New().Report(true)
	fmt.Fprintf(a.errOut, "%s: %s\n", ind.Title, ind.Caption)
	return ctrl.Submit(cmd.Context())
}

func printResult(a *app, res types.SubmissionResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(a.out, "Training started successfully")
	fmt.Fprintf(a.out, "  model:   %s\n", res.ModelName)
	fmt.Fprintf(a.out, "  dataset: %s\n", res.DatasetPath)
	if res.Message != "" {
		fmt.Fprintf(a.out, "  message: %s\n", res.Message)
	}
	if res.OutputDir != "" {
		fmt.Fprintf(a.out, "  output:  %s\n", res.OutputDir)
	}
	return nil
}
