package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// tokenEnvVars maps token-accepting services to their environment
// overrides, mirroring what the credentials store consults.
var tokenEnvVars = map[string]string{
	"ads":  "ADS_TOKEN",
	"mast": "MAST_TOKEN",
}

// authCommand creates the credential management command.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage archive API tokens",
		Long: `Store tokens for services that require them (ads, mast). Tokens live in
a credentials file readable only by you; the ADS_TOKEN and MAST_TOKEN
environment variables override the file.`,
	}

	cmd.AddCommand(c.authSetCommand())
	cmd.AddCommand(c.authRemoveCommand())
	cmd.AddCommand(c.authStatusCommand())

	return cmd
}

// authSetCommand creates the "auth set" subcommand.
func (c *CLI) authSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <token>",
		Short: "Store a token for a service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			printSuccess("Token for %s stored", args[0])
			printDetail("File: %s", store.Path())
			if env, ok := tokenEnvVars[args[0]]; ok && os.Getenv(env) != "" {
				printWarning("%s is set and overrides the stored token", env)
			}
			return nil
		},
	}
}

// authRemoveCommand creates the "auth remove" subcommand.
func (c *CLI) authRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <service>",
		Short: "Remove a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			printSuccess("Token for %s removed", args[0])
			return nil
		},
	}
}

// authStatusCommand creates the "auth status" subcommand.
func (c *CLI) authStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which services have tokens configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}

			for _, service := range []string{"ads", "mast"} {
				token, err := store.Get(service)
				if err != nil {
					return err
				}
				switch {
				case token == "":
					printKeyValue(service, StyleDim.Render("no token"))
				case os.Getenv(tokenEnvVars[service]) != "":
					printKeyValue(service, "set "+StyleDim.Render("(from "+tokenEnvVars[service]+")"))
				default:
					printKeyValue(service, "set "+StyleDim.Render("(from "+store.Path()+")"))
				}
			}
			return nil
		},
	}
}
