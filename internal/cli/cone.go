package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/archives"
	"github.com/tmarkert/skyquery/pkg/archives/gaia"
	"github.com/tmarkert/skyquery/pkg/archives/mast"
	"github.com/tmarkert/skyquery/pkg/archives/ned"
	"github.com/tmarkert/skyquery/pkg/archives/sesame"
	"github.com/tmarkert/skyquery/pkg/archives/simbad"
	"github.com/tmarkert/skyquery/pkg/cache"
	"github.com/tmarkert/skyquery/pkg/coords"
	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/scs"
	"github.com/tmarkert/skyquery/pkg/table"
)

// coneServices are the built-in services a plain cone search fans out to.
var coneServices = []string{"gaia", "mast", "ned", "simbad"}

// coneCommand creates the cone search command.
func (c *CLI) coneCommand() *cobra.Command {
	var (
		service string
		all     bool
		refresh bool
		out     outputOpts
	)

	cmd := &cobra.Command{
		Use:   "cone <target|ra dec> <radius>",
		Short: "Run a cone search around a position or named object",
		Long: `Search a service for objects within a radius of a sky position. The
position is either explicit coordinates (decimal degrees or sexagesimal)
or an object name, which is resolved through Sesame first. The radius
accepts deg, arcmin, and arcsec suffixes; a bare number means degrees.

Examples:
  skyquery cone M31 0.1
  skyquery cone 10.684 41.269 5arcmin
  skyquery cone "00:42:44.3 +41:16:07" 30arcsec --service gaia
  skyquery cone "Crab Nebula" 0.2 --all
  skyquery cone M13 0.1 -o m13.csv`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, radius, err := parseConeArgs(args)
			if err != nil {
				return err
			}

			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			center, label, err := c.resolveCenter(cmd, ca, position, refresh)
			if err != nil {
				return err
			}
			if label != "" {
				printInfo("Resolved %s to %s", label, center.Sexagesimal())
			}

			if all {
				return c.runConeAll(cmd, ca, center, radius, &out)
			}
			return c.runCone(cmd, ca, service, center, radius, &out)
		},
	}

	cmd.Flags().StringVarP(&service, "service", "s", "simbad", "service to query")
	cmd.Flags().BoolVar(&all, "all", false, "query all cone-capable services concurrently")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().StringVarP(&out.path, "output", "o", "", "write results to a file instead of previewing")
	cmd.Flags().StringVarP(&out.format, "format", "f", "", "output format: votable, csv, json (default from extension)")

	return cmd
}

// parseConeArgs splits command arguments into a position string and a
// radius. The last argument is always the radius; everything before it is
// the target, which may span several arguments ("M 31", sexagesimal pairs).
func parseConeArgs(args []string) (string, coords.Angle, error) {
	radius, err := coords.ParseAngle(args[len(args)-1])
	if err != nil {
		return "", 0, err
	}
	position := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if position == "" {
		return "", 0, errors.New(errors.ErrCodeInvalidInput, "missing search position")
	}
	return position, radius, nil
}

// resolveCenter turns the position argument into coordinates. Anything that
// parses as coordinates is taken literally; everything else goes through the
// Sesame resolver. The returned label is the canonical name for resolved
// targets and empty for literal coordinates.
func (c *CLI) resolveCenter(cmd *cobra.Command, ca cache.Cache, position string, refresh bool) (coords.EquatorialCoord, string, error) {
	if center, err := coords.Parse(position); err == nil {
		return center, "", nil
	}

	desc, err := c.registry.Lookup("sesame")
	if err != nil {
		return coords.EquatorialCoord{}, "", err
	}

	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Resolving %s...", position))
	spinner.Start()
	res, err := sesame.New(desc.BaseURL, ca).Resolve(cmd.Context(), position, refresh)
	spinner.Stop()
	if err != nil {
		return coords.EquatorialCoord{}, "", err
	}
	return res.Coord, res.Canonical, nil
}

// coneSearcher builds a cone-capable client for the named service. Services
// with bespoke APIs get their dedicated clients; anything with a registered
// cone-search endpoint runs over the generic SCS protocol.
func (c *CLI) coneSearcher(name string, ca cache.Cache) (archives.ConeSearcher, error) {
	desc, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	switch desc.Name {
	case "simbad":
		return simbad.New(desc.TAPURL, ca), nil
	case "gaia":
		return gaia.New(desc.TAPURL, ca), nil
	case "ned":
		return ned.New(desc.BaseURL, desc.SCSURL, ca), nil
	case "mast":
		var opts []mast.Option
		if token := c.token("mast"); token != "" {
			opts = append(opts, mast.WithToken(token))
		}
		return mast.New(desc.BaseURL, ca, opts...), nil
	}

	if desc.SCSURL != "" {
		client := scs.New(desc.Name, desc.SCSURL, ca)
		return archives.ConeFunc(func(ctx context.Context, center coords.EquatorialCoord, radius coords.Angle) (*table.Table, error) {
			return client.Search(ctx, center, radius)
		}), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported,
		"service %q does not support cone search", desc.Name)
}

// token reads a stored credential, treating lookup failures as absence.
func (c *CLI) token(service string) string {
	store, err := c.store()
	if err != nil {
		return ""
	}
	tok, err := store.Get(service)
	if err != nil {
		return ""
	}
	return tok
}

// runCone searches a single service and emits the result table.
func (c *CLI) runCone(cmd *cobra.Command, ca cache.Cache, service string, center coords.EquatorialCoord, radius coords.Angle, out *outputOpts) error {
	searcher, err := c.coneSearcher(service, ca)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Searching %s...", service))
	spinner.Start()
	t, err := searcher.ConeSearch(cmd.Context(), center, radius)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("%s search failed", service))
		return err
	}
	spinner.Stop()
	defer t.Release()

	printSuccess("%s returned %d rows", service, t.NumRows())
	return out.emit(t)
}

// runConeAll fans the search out to every cone-capable service. Results go
// to per-service files when --output is set, otherwise each service prints
// a summary line and the largest result is previewed.
func (c *CLI) runConeAll(cmd *cobra.Command, ca cache.Cache, center coords.EquatorialCoord, radius coords.Angle, out *outputOpts) error {
	searchers := make(map[string]archives.ConeSearcher, len(coneServices))
	for _, name := range coneServices {
		s, err := c.coneSearcher(name, ca)
		if err != nil {
			return err
		}
		searchers[name] = s
	}

	spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Searching %d services...", len(searchers)))
	spinner.Start()
	results := archives.ConeAll(cmd.Context(), searchers, center, radius, archives.ConeOptions{})
	spinner.Stop()

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			printError("%s: %s", res.Service, errors.UserMessage(res.Err))
			continue
		}
		printSuccess("%s returned %d rows (%s)", res.Service, res.Table.NumRows(), res.Elapsed.Round(10*time.Millisecond))
	}

	defer func() {
		for _, res := range results {
			if res.Table != nil {
				res.Table.Release()
			}
		}
	}()

	if out.path != "" {
		return writeConeResults(results, out)
	}

	// Preview the richest result.
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := 0, 0
		if results[i].Table != nil {
			ri = results[i].Table.NumRows()
		}
		if results[j].Table != nil {
			rj = results[j].Table.NumRows()
		}
		return ri > rj
	})
	if len(results) > 0 && results[0].Table != nil && results[0].Table.NumRows() > 0 {
		printNewline()
		printInfo("Preview of %s", results[0].Service)
		previewTable(results[0].Table)
	}
	if failed == len(results) {
		return errors.New(errors.ErrCodeServiceError, "all services failed")
	}
	return nil
}

// writeConeResults writes one file per service, deriving names from the
// --output base path ("out.csv" becomes "out_gaia.csv").
func writeConeResults(results []archives.ConeResult, out *outputOpts) error {
	format, err := out.resolveFormat()
	if err != nil {
		return err
	}

	ext := filepath.Ext(out.path)
	base := strings.TrimSuffix(out.path, ext)
	if ext == "" {
		ext = "." + extensionFor(format)
	}

	for _, res := range results {
		if res.Table == nil {
			continue
		}
		path := fmt.Sprintf("%s_%s%s", base, res.Service, ext)
		f, err := openOutput(path)
		if err != nil {
			return err
		}
		if err := writeTable(f, res.Table, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// extensionFor maps an export format to its conventional file extension.
func extensionFor(format string) string {
	switch format {
	case formatCSV:
		return "csv"
	case formatJSON:
		return "json"
	default:
		return "xml"
	}
}
