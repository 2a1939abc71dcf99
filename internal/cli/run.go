package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/output"
	"github.com/aryankumar/batchexec/internal/workload"
)

type runOptions struct {
	tasks      int
	sleep      time.Duration
	slowSleep  time.Duration
	fail       string
	slow       string
	empty      string
	collect    bool
	namePrefix string
	wide       bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic batch on a dedicated pool",
		Long: `Run a batch of synthetic sub-requests on a dedicated bounded pool and
print one row per task.

By default the batch is fail-fast: the first failure (in submission order)
aborts the command. With --collect the batch is fail-soft and every
successful value and every failure is reported.`,
		Example: `  # Run 16 sub-requests of 20ms each
  batchexec run --tasks 16 --sleep 20ms

  # Make sub-requests 3 and 7 fail, collect everything that succeeded
  batchexec run --tasks 10 --fail 3,7 --collect

  # Sub-request 2 outlives a 500ms batch timeout and is cancelled
  batchexec run --tasks 4 --slow 2 --timeout 500ms --collect

  # Output as JSON
  batchexec run --collect -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), a, cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.tasks, "tasks", 8, "number of sub-requests")
	cmd.Flags().DurationVar(&opts.sleep, "sleep", 10*time.Millisecond, "duration of each sub-request")
	cmd.Flags().DurationVar(&opts.slowSleep, "slow-sleep", 0, "duration of --slow sub-requests (default 10x --sleep, at least 1s)")
	cmd.Flags().StringVar(&opts.fail, "fail", "", "comma-separated indexes of sub-requests that fail")
	cmd.Flags().StringVar(&opts.slow, "slow", "", "comma-separated indexes of slow sub-requests")
	cmd.Flags().StringVar(&opts.empty, "empty", "", "comma-separated indexes of sub-requests returning no value")
	cmd.Flags().BoolVar(&opts.collect, "collect", false, "fail-soft: collect values and errors instead of aborting")
	cmd.Flags().StringVar(&opts.namePrefix, "name-prefix", "", "worker name prefix (overrides batch.namePrefix)")
	cmd.Flags().BoolVar(&opts.wide, "wide", false, "show value and error details in table output")

	return cmd
}

func (o runOptions) spec() (workload.Spec, error) {
	spec := workload.Spec{Tasks: o.tasks, Sleep: o.sleep, SlowSleep: o.slowSleep}

	var err error
	if spec.Fail, err = workload.ParseIndexes(o.fail); err != nil {
		return spec, fmt.Errorf("--fail: %w", err)
	}
	if spec.Slow, err = workload.ParseIndexes(o.slow); err != nil {
		return spec, fmt.Errorf("--slow: %w", err)
	}
	if spec.Empty, err = workload.ParseIndexes(o.empty); err != nil {
		return spec, fmt.Errorf("--empty: %w", err)
	}
	return spec, spec.Validate()
}

func runBatch(ctx context.Context, a *app, cmd *cobra.Command, opts runOptions) error {
	spec, err := opts.spec()
	if err != nil {
		return err
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(format, output.WithNoColor(noColor), output.WithWide(opts.wide))

	tasks := workload.Build(spec)

	batchOpts := append(a.cfg.BatchOptions(),
		executor.WithLogger(a.logger),
		executor.WithProgress(func(completed, total int) {
			a.logger.Debug("progress", "completed", completed, "total", total)
		}),
	)
	if opts.namePrefix != "" {
		batchOpts = append(batchOpts, executor.WithNamePrefix(opts.namePrefix))
	}

	if opts.collect {
		res := executor.InvokeCollect(ctx, tasks, batchOpts...)
		return render(cmd.OutOrStdout(), formatter, len(tasks), res)
	}

	values, err := executor.Invoke(ctx, tasks, batchOpts...)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}
	return render(cmd.OutOrStdout(), formatter, len(tasks), &executor.BatchResult[*workload.Result]{Values: values})
}

func render(w io.Writer, formatter output.Formatter, total int, res *executor.BatchResult[*workload.Result]) error {
	rows := make([]output.Row, 0, len(res.Values)+len(res.Errors))
	for _, v := range res.Values {
		rows = append(rows, output.Row{
			Index:    v.Index,
			Status:   output.StatusSucceeded,
			Worker:   v.Worker,
			Duration: v.Duration,
			Detail:   fmt.Sprintf("sub-request %d ok", v.Index),
		})
	}
	rows = append(rows, output.ErrorRows(res.Errors)...)

	return formatter.FormatReport(w, output.NewReport(rows, executor.Summarize(total, res)))
}
