package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ridepool/internal/jobs"
	"ridepool/internal/model"
)

var (
	solveInput   string
	solveOutput  string
	solveSeed    int64
	solveTimeout time.Duration
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Optimize one batch file and print the job status",
	Long: `Run one batch of riders and vehicles through the job pipeline and
print the final status document as JSON.

Example batch (YAML):

  riders:
    - id: ana
    - id: ben
  vehicles:
    - id: car1
      driverId: ana
      capacity: 3`,
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVarP(&solveInput, "input", "i", "", "batch file (YAML or JSON)")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "", "write the status document to this file instead of stdout")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "random seed (overrides jobs.seed)")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 5*time.Minute, "give up waiting after this long")
	_ = solveCmd.MarkFlagRequired("input")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	req, err := model.LoadBatch(solveInput)
	if err != nil {
		logger.Error("Failed to load batch", zap.String("path", solveInput), zap.Error(err))
		return err
	}

	o := jobOptions(cfg, logger)
	if cmd.Flags().Changed("seed") {
		o.Seed = solveSeed
	}
	svc := jobs.NewService(o)
	defer func() { _ = svc.Shutdown(context.Background()) }()

	id, err := svc.SubmitRequest(*req)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), solveTimeout)
	defer cancel()
	st, err := waitForJob(ctx, svc, id, 20*time.Millisecond)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if solveOutput != "" {
		f, err := os.Create(solveOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if st.Status == jobs.Failed {
		return fmt.Errorf("job %s failed: %s", id, st.Message)
	}
	return nil
}

// waitForJob polls the job until it is terminal or ctx ends.
func waitForJob(ctx context.Context, svc *jobs.Service, id string, every time.Duration) (jobs.Status, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		st := svc.Status(id)
		if st.Status.Terminal() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, fmt.Errorf("job %s still %s: %w", id, st.Status, ctx.Err())
		case <-t.C:
		}
	}
}
