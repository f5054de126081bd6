package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/tap"
)

// queryCommand creates the ADQL query command.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		service string
		async   bool
		watch   bool
		maxRows int
		timeout time.Duration
		refresh bool
		out     outputOpts
	)

	cmd := &cobra.Command{
		Use:   "query <adql>",
		Short: "Run an ADQL query against a TAP service",
		Long: `Execute an ADQL query on a service's TAP endpoint. Short queries run
synchronously; pass --async to submit a UWS job instead, which survives
the process and can be picked up later with "skyquery job". --watch
follows an async job live until it finishes.

Examples:
  skyquery query "SELECT TOP 10 * FROM basic" --service simbad
  skyquery query "SELECT source_id, ra, dec FROM gaiadr3.gaia_source WHERE parallax > 100" -s gaia -o bright.csv
  skyquery query "SELECT COUNT(*) FROM basic" -s simbad --maxrec 1000
  skyquery query "SELECT ..." -s gaia --async
  skyquery query "SELECT ..." -s gaia --async --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				async = true
			}

			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			client, err := c.tapClient(service, ca)
			if err != nil {
				return err
			}
			if timeout > 0 {
				client.Transport().SetTimeout(timeout)
				client.SetWaitTimeout(timeout)
			}

			var opts []tap.Option
			if maxRows > 0 {
				opts = append(opts, tap.WithMaxRows(maxRows))
			}
			if refresh {
				opts = append(opts, tap.WithRefresh())
			}

			if async {
				return c.runAsyncQuery(cmd, client, service, args[0], watch, &out, opts)
			}
			return c.runSyncQuery(cmd, client, service, args[0], &out, opts)
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "simbad", "TAP service to query")
	cmd.Flags().BoolVar(&async, "async", false, "submit as an asynchronous UWS job")
	cmd.Flags().BoolVar(&watch, "watch", false, "follow an async job until it completes (implies --async)")
	cmd.Flags().IntVar(&maxRows, "maxrec", 0, "cap the number of result rows (MAXREC)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "request and job wait timeout (e.g. 5m)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().StringVarP(&out.path, "output", "o", "", "write results to a file instead of previewing")
	cmd.Flags().StringVarP(&out.format, "format", "f", "", "output format: votable, csv, json (default from extension)")

	return cmd
}

// tapClient builds a TAP client for a registered service.
func (c *CLI) tapClient(service string, ca cache.Cache) (*tap.Client, error) {
	desc, err := c.registry.Lookup(service)
	if err != nil {
		return nil, err
	}
	if desc.TAPURL == "" {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"service %q has no TAP endpoint", desc.Name)
	}
	return tap.New(desc.Name, desc.TAPURL, ca), nil
}

// runSyncQuery executes the query synchronously and emits the result.
func (c *CLI) runSyncQuery(cmd *cobra.Command, client *tap.Client, service, query string, out *outputOpts, opts []tap.Option) error {
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Querying %s...", service))
	spinner.Start()
	res, err := client.Query(cmd.Context(), query, opts...)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("%s query failed", service))
		return err
	}
	spinner.Stop()
	defer res.Table.Release()

	printSuccess("%s returned %d rows", service, res.Table.NumRows())
	if res.Overflow {
		printWarning("Result truncated at the service's row limit; raise --maxrec or refine the query")
	}
	return out.emit(res.Table)
}

// runAsyncQuery submits a UWS job. With --watch it follows the job to
// completion; otherwise it prints the handle needed to pick the job up
// later.
func (c *CLI) runAsyncQuery(cmd *cobra.Command, client *tap.Client, service, query string, watch bool, out *outputOpts, opts []tap.Option) error {
	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Submitting to %s...", service))
	spinner.Start()
	job, err := client.QueryAsync(cmd.Context(), query, opts...)
	if err != nil {
		spinner.StopWithError("Submission failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Job %s submitted to %s", job.ID, service))

	if watch {
		return c.watchJob(cmd, job, out)
	}

	printKeyValue("Job ID", job.ID)
	printKeyValue("URL", job.URL)
	if phase := job.LastPhase(); phase != "" {
		printKeyValue("Phase", phase)
	}
	printNextStep("Check its progress", fmt.Sprintf("skyquery job status %s", job.URL))
	printNextStep("Fetch the result once done", fmt.Sprintf("skyquery job fetch %s", job.URL))
	return nil
}
