package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// jobCommand creates the job management command group.
func (c *CLI) jobCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage asynchronous TAP jobs",
		Long: `Inspect, fetch, abort, or delete UWS jobs submitted with
"skyquery query --async". Jobs are addressed by the URL printed at
submission time.`,
	}

	cmd.AddCommand(
		c.jobStatusCommand(),
		c.jobFetchCommand(),
		c.jobWatchCommand(),
		c.jobAbortCommand(),
		c.jobDeleteCommand(),
	)

	return cmd
}

// resumeJob reattaches to a job from its UWS URL. The URL always has the
// form <tap-base>/async/<id>, so splitting on the async segment recovers
// both the endpoint and the job identifier.
func (c *CLI) resumeJob(jobURL string, ca cache.Cache) (*tap.Job, error) {
	jobURL = strings.TrimRight(strings.TrimSpace(jobURL), "/")
	base, id, found := strings.Cut(jobURL, "/async/")
	if !found || id == "" || strings.Contains(id, "/") {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"not a job URL: %q (expected .../async/<id>)", jobURL)
	}

	// Label the client with the registered service name when the URL
	// belongs to a known endpoint.
	service := base
	for _, desc := range c.registry.List() {
		if desc.TAPURL != "" && strings.TrimRight(desc.TAPURL, "/") == base {
			service = desc.Name
			break
		}
	}

	return tap.New(service, base, ca).ResumeJob(id), nil
}

func (c *CLI) jobStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <url>",
		Short: "Show a job's phase and runtime details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			job, err := c.resumeJob(args[0], ca)
			if err != nil {
				return err
			}

			info, err := job.Info(cmd.Context())
			if err != nil {
				return err
			}

			printKeyValue("Job ID", info.ID)
			printKeyValue("Phase", info.Phase)
			if info.OwnerID != "" {
				printKeyValue("Owner", info.OwnerID)
			}
			if info.StartTime != "" {
				printKeyValue("Started", info.StartTime)
			}
			if info.EndTime != "" {
				printKeyValue("Ended", info.EndTime)
			}
			if info.ExecutionDuration != "" && info.ExecutionDuration != "0" {
				printKeyValue("Max runtime", info.ExecutionDuration+"s")
			}
			if info.Destruction != "" {
				printKeyValue("Destruction", info.Destruction)
			}
			if info.Error != nil {
				printNewline()
				printError("%s", info.Error.Message)
			}

			switch info.Phase {
			case tap.PhaseCompleted:
				printNextStep("Fetch the result", fmt.Sprintf("skyquery job fetch %s", job.URL))
			case tap.PhasePending, tap.PhaseQueued, tap.PhaseExecuting:
				printNextStep("Follow it live", fmt.Sprintf("skyquery job watch %s", job.URL))
			}
			return nil
		},
	}
}

func (c *CLI) jobFetchCommand() *cobra.Command {
	var out outputOpts

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Wait for a job and retrieve its result table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			job, err := c.resumeJob(args[0], ca)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Waiting for job %s...", job.ID))
			spinner.Start()
			res, err := job.Wait(cmd.Context())
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Job %s failed", job.ID))
				return err
			}
			spinner.Stop()
			defer res.Table.Release()

			printSuccess("Job %s completed with %d rows", job.ID, res.Table.NumRows())
			if res.Overflow {
				printWarning("Result truncated at the service's row limit")
			}
			return out.emit(res.Table)
		},
	}

	cmd.Flags().StringVarP(&out.path, "output", "o", "", "write results to a file instead of previewing")
	cmd.Flags().StringVarP(&out.format, "format", "f", "", "output format: votable, csv, json (default from extension)")

	return cmd
}

func (c *CLI) jobWatchCommand() *cobra.Command {
	var out outputOpts

	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Follow a job live until it reaches a terminal phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			job, err := c.resumeJob(args[0], ca)
			if err != nil {
				return err
			}
			return c.watchJob(cmd, job, &out)
		},
	}

	cmd.Flags().StringVarP(&out.path, "output", "o", "", "write results to a file instead of previewing")
	cmd.Flags().StringVarP(&out.format, "format", "f", "", "output format: votable, csv, json (default from extension)")

	return cmd
}

func (c *CLI) jobAbortCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "abort <url>",
		Short: "Abort a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			job, err := c.resumeJob(args[0], ca)
			if err != nil {
				return err
			}
			if err := job.Abort(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Job %s aborted", job.ID)
			return nil
		},
	}
}

func (c *CLI) jobDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete a job and its stored result from the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			job, err := c.resumeJob(args[0], ca)
			if err != nil {
				return err
			}
			if err := job.Delete(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Job %s deleted", job.ID)
			return nil
		},
	}
}
