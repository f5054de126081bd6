package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tmarkert/skyquery/pkg/archives"
)

// servicesCommand creates the service listing command.
func (c *CLI) servicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the known archive services",
		Long: `Show every registered archive service with the protocols it speaks
and the aliases it answers to. Services can be added or overridden in
the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			for _, desc := range c.registry.List() {
				rows = append(rows, []string{
					desc.Name,
					strings.Join(protocols(desc), ", "),
					strings.Join(desc.Aliases, ", "),
					desc.Description,
				})
			}

			t := lgtable.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(styleBorder).
				Headers("Service", "Protocols", "Aliases", "Description").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleHeader
					}
					s := lipgloss.NewStyle().Padding(0, 1)
					if col == 0 {
						return s.Foreground(colorCyan)
					}
					if col == 1 || col == 2 {
						return s.Foreground(colorGray)
					}
					return s
				}).
				Render()

			fmt.Println(t)
			printNewline()
			printNextStep("Query one", `skyquery cone M31 0.1 --service <name>`)
			return nil
		},
	}
}

// protocols lists the access protocols a service descriptor exposes.
func protocols(desc archives.Descriptor) []string {
	var p []string
	if desc.TAPURL != "" {
		p = append(p, "TAP")
	}
	if desc.SCSURL != "" {
		p = append(p, "SCS")
	}
	if desc.BaseURL != "" {
		p = append(p, "HTTP")
	}
	return p
}
