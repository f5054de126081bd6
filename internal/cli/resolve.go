package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/archives/sesame"
	"github.com/tmarkert/skyquery/pkg/coords"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		refresh   bool
		resolvers string
	)

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve an object name to coordinates",
		Long: `Resolve an astronomical object name to equatorial coordinates using the
CDS Sesame service, which consults SIMBAD, NED, and VizieR in turn.

Examples:
  skyquery resolve M31
  skyquery resolve "NGC 4151"
  skyquery resolve --resolvers NS "Arp 220"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := c.newCache(cmd, false)
			if err != nil {
				return err
			}
			defer ca.Close()

			desc, err := c.registry.Lookup("sesame")
			if err != nil {
				return err
			}

			var opts []sesame.Option
			if resolvers != "" {
				opts = append(opts, sesame.WithResolvers(resolvers))
			}
			client := sesame.New(desc.BaseURL, ca, opts...)

			name := args[0]
			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Resolving %s...", name))
			spinner.Start()

			res, err := client.Resolve(cmd.Context(), name, refresh)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Could not resolve %q", name))
				return err
			}
			spinner.Stop()

			printSuccess("Resolved %s via %s", res.Canonical, res.Resolver)
			printKeyValue("RA", fmt.Sprintf("%s  (%s)", coords.FormatRA(res.Coord.RA), res.Coord.RA))
			printKeyValue("Dec", fmt.Sprintf("%s  (%s)", coords.FormatDec(res.Coord.Dec), res.Coord.Dec))
			if res.Otype != "" {
				printKeyValue("Type", res.Otype)
			}
			printNewline()
			printNextStep("Search around it", fmt.Sprintf("skyquery cone %q 0.1", res.Canonical))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().StringVar(&resolvers, "resolvers", "", "resolver order: letters S (SIMBAD), N (NED), V (VizieR)")

	return cmd
}
