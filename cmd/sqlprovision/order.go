package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/pkg/master"
	"github.com/pthm/sqlprovision/pkg/metadata"
)

var orderClient string

var orderCmd = &cobra.Command{
	Use:   "order <driver.sql>",
	Short: "Show the execution order of a driver script",
	Long: `Read the includes of a driver script and print the order the assembler
would give them for a client, with the tier each script falls in. The driver
is not modified.`,
	Example: `  # Order of a generated driver
  sqlprovision order out/ABC/PRD/GCYM1/master_script_GCYM1.sql --client abc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := resolveString(orderClient, cfg.Client)
		if client == "" {
			return cli.ConfigError("--client is required", nil)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return cli.GeneralError("reading driver script", err)
		}
		printOrder(cmd.OutOrStdout(), string(data), metadata.Client{ShortName: client})
		return nil
	},
}

func init() {
	orderCmd.Flags().StringVar(&orderClient, "client", "", "client short name")
}

func printOrder(w io.Writer, content string, c metadata.Client) {
	a := &master.Assembler{Client: c}
	order := a.Order(master.ParseIncludes(content))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Script", "Tier"})
	bootstrap := master.BootstrapFiles(c)
	for i, name := range order {
		tier := master.OrderKey(name, c).Tier
		label := fmt.Sprintf("%d %s", tier, master.TierName(tier))
		if slices.Contains(bootstrap, name) {
			label = "bootstrap"
		}
		t.AppendRow(table.Row{i + 1, name, label})
	}
	t.Render()
}
