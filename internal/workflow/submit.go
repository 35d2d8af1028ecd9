package workflow

import (
	"bytes"
	"context"
	"errors"
	"time"

	"tunelab/internal/hparams"
	"tunelab/pkg/types"
)

// job is the selection captured when a submission begins.
type job struct {
	model        string
	file         DatasetFile
	gen          uint64
	values       hparams.Values
	uploadedPath string
}

// Submit uploads the selected dataset and starts training with the selected
// model. It fails fast with a BusyError while another submission is in
// flight and with a ValidationError when model or file is missing; neither
// issues any request. The training start is only attempted after a
// successful upload. If it fails, the reference path is kept so that a retry
// of the same selection skips the upload.
func (c *Controller) Submit(ctx context.Context) (types.SubmissionResult, error) {
	j, err := c.begin()
	if err != nil {
		return types.SubmissionResult{}, err
	}
	return c.run(ctx, j)
}

// Start checks the same preconditions as Submit synchronously, then runs the
// remote sequence in the background. The outcome is reported through the
// notifier and the state's LastError.
func (c *Controller) Start(ctx context.Context) error {
	j, err := c.begin()
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.run(ctx, j)
	}()
	return nil
}

// Wait blocks until submissions started with Start have finished.
func (c *Controller) Wait() { c.wg.Wait() }

// begin checks preconditions and takes the in-flight flag.
func (c *Controller) begin() (job, error) {
	c.mu.Lock()
	if c.st.InFlight {
		c.mu.Unlock()
		err := newError(KindBusy, msgBusy, nil)
		recordOutcome(err)
		c.log.Info().Msg("submission rejected: already in flight")
		c.publish(NewNotification(LevelError, "Error", err.Message))
		return job{}, err
	}
	if c.st.Model == "" || c.st.Dataset == nil {
		err := newError(KindValidation, msgValidation, nil)
		c.st.LastError = err.Error()
		c.mu.Unlock()
		recordOutcome(err)
		c.publish(NewNotification(LevelError, "Validation Error", err.Message))
		return job{}, err
	}
	j := job{
		model:  c.st.Model,
		file:   *c.st.Dataset,
		gen:    c.fileGen,
		values: c.st.Hyperparameters.Clone(),
	}
	if c.uploaded.gen == c.fileGen {
		j.uploadedPath = c.uploaded.path
	}
	c.st.InFlight = true
	c.mu.Unlock()
	inFlightGauge.Set(1)
	return j, nil
}

// release clears the in-flight flag.
func (c *Controller) release() {
	c.mu.Lock()
	c.st.InFlight = false
	c.mu.Unlock()
	inFlightGauge.Set(0)
}

// run performs upload then start. The in-flight flag is released on every
// exit path, including panics in the remote.
func (c *Controller) run(ctx context.Context, j job) (res types.SubmissionResult, err error) {
	start := time.Now()
	log := c.log.With().Str("model", j.model).Str("file", j.file.Name).Logger()
	defer func() {
		if p := recover(); p != nil {
			c.release()
			panic(p)
		}
		c.mu.Lock()
		if err != nil {
			c.st.LastError = err.Error()
		} else {
			c.st.LastError = ""
		}
		c.mu.Unlock()
		c.release()
		recordOutcome(err)
		if err != nil {
			log.Error().Err(err).Dur("dur", time.Since(start)).Msg("submission failed")
			msg := err.Error()
			var we *Error
			if errors.As(err, &we) {
				msg = we.Message
			}
			c.publish(NewNotification(LevelError, "Error", msg))
			return
		}
		log.Info().Str("dataset_path", res.DatasetPath).Bool("upload_reused", res.UploadReused).Dur("dur", time.Since(start)).Msg("training started")
		c.publish(NewNotification(LevelSuccess, "Success", "Training started successfully"))
	}()

	path := j.uploadedPath
	reused := path != ""
	if reused {
		uploadsReusedTotal.Inc()
		log.Debug().Str("dataset_path", path).Msg("reusing uploaded dataset")
	} else {
		p, uerr := c.remote.UploadDataset(ctx, j.file.Name, bytes.NewReader(j.file.Data))
		if uerr != nil {
			return res, newError(KindUpload, msgUpload, uerr)
		}
		path = p
		c.mu.Lock()
		if c.fileGen == j.gen {
			c.uploaded = uploadRef{gen: j.gen, path: p}
		}
		c.mu.Unlock()
		log.Debug().Str("dataset_path", path).Msg("dataset uploaded")
	}

	out, terr := c.remote.StartTraining(ctx, types.StartTrainingRequest{
		ModelName:       j.model,
		DatasetPath:     path,
		Hyperparameters: j.values,
	})
	if terr != nil {
		return res, newError(KindTrainingStart, msgTrainingStart, terr)
	}
	return types.SubmissionResult{
		ModelName:    j.model,
		DatasetPath:  path,
		UploadReused: reused,
		Status:       out.Status,
		Message:      out.Message,
		OutputDir:    out.OutputDir,
	}, nil
}
