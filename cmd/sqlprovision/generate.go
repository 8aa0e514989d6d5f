package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/pkg/credentials"
	"github.com/pthm/sqlprovision/pkg/pipeline"
)

var (
	generateClient       string
	generateServer       string
	generateWarehouse    string
	generateInput        string
	generateOutput       string
	generateMetadataFile string
	generateDistributors []string
	generateParallel     bool
	generateInteractive  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render a client's deployment scripts",
	Long: `Render the template tree into the deployment scripts of one client.

Every environment directory of the input tree becomes a directory under
<output>/<CLIENT>/<SERVER>, holding the substituted templates, per-account
creation and grant scripts, filtered object DDL and an ordered driver script.
Generated secrets are encrypted and written to the credential manifest.`,
	Example: `  # Render for client abc on the production server
  sqlprovision generate --client abc --server PRD

  # Only the first warehouse, directories in parallel
  sqlprovision generate --client abc --server PRD --warehouse 1 --parallel

  # Reference data from a file instead of the databases
  sqlprovision generate --client abc --server TST --metadata-file clients/abc.yaml

  # Prompt for anything not configured
  sqlprovision generate --interactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		c.Client = resolveString(generateClient, cfg.Client)
		c.Server = resolveString(generateServer, cfg.Server)
		c.Warehouse = resolveString(generateWarehouse, cfg.Warehouse)
		c.InputDir = resolveString(generateInput, cfg.InputDir)
		c.OutputDir = resolveString(generateOutput, cfg.OutputDir)
		c.Parallel = resolveBool(generateParallel, cfg.Parallel)
		if len(generateDistributors) > 0 {
			c.Distributors = generateDistributors
		}
		if generateMetadataFile != "" {
			c.Metadata.Source = cli.SourceFile
			c.Metadata.File = generateMetadataFile
		}

		if generateInteractive {
			if err := promptRun(&c); err != nil {
				return err
			}
		}

		return runGenerate(cmd.Context(), &c, cmd.OutOrStdout())
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateClient, "client", "", "client short name")
	f.StringVar(&generateServer, "server", "", "target server tag (PRD, TST, STG)")
	f.StringVar(&generateWarehouse, "warehouse", "", "warehouse selection: 1, 2 or both")
	f.StringVar(&generateInput, "input", "", "template tree root")
	f.StringVar(&generateOutput, "output", "", "output root")
	f.StringVar(&generateMetadataFile, "metadata-file", "", "read reference data from a client description file")
	f.StringSliceVar(&generateDistributors, "distributor", nil, "distributor name fragment (repeatable)")
	f.BoolVar(&generateParallel, "parallel", false, "process environment directories concurrently")
	f.BoolVarP(&generateInteractive, "interactive", "i", false, "prompt for missing settings")
}

func runGenerate(ctx context.Context, c *cli.Config, w io.Writer) error {
	pcfg, err := c.Pipeline()
	if err != nil {
		return cli.ConfigError("invalid run configuration", err)
	}

	cipher, err := credentials.NewFernetCipher(c.Credentials.Key)
	if err != nil {
		return cli.ConfigError("credentials.key", err)
	}

	provider, closeProvider, err := openProvider(ctx, c)
	if err != nil {
		return err
	}
	defer func() { _ = closeProvider() }()

	p, err := pipeline.New(pcfg, provider, cipher, c.Generator(), logger)
	if err != nil {
		return cli.ConfigError("invalid run configuration", err)
	}

	report, err := p.Run(ctx)
	if err != nil {
		if pipeline.IsMetadataErr(err) {
			return cli.MetadataError("loading reference data", err)
		}
		return cli.GeneralError("generating scripts", err)
	}

	logger.Info("run complete",
		zap.String("run_id", report.RunID),
		zap.String("output", report.OutputBase),
		zap.Int("accounts", len(p.PasswordList())))

	if !quiet {
		printReport(w, report)
	}
	return nil
}

// printReport writes a per-environment summary of a run.
func printReport(w io.Writer, r *pipeline.Report) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s) -> %s", r.Client.Upper(), r.Client.FullName, r.OutputBase)))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Environment", "Driver", "Scripts", "Skipped Groups"})
	var scripts int
	for _, d := range r.Directories {
		t.AppendRow(table.Row{d.Name, d.Driver, len(d.Order), len(d.Skipped)})
		scripts += len(d.Order)
	}
	t.AppendFooter(table.Row{"Total", "", scripts, ""})
	t.Render()

	if len(r.Excluded) > 0 {
		_, _ = fmt.Fprintf(w, "Excluded by warehouse selection: %s\n", strings.Join(r.Excluded, ", "))
	}
	_, _ = fmt.Fprintf(w, "Profiles:  %d\n", len(r.Profiles))
	_, _ = fmt.Fprintf(w, "Inserts:   %s\n", r.Inserts)
	_, _ = fmt.Fprintf(w, "Manifest:  %s\n", r.Manifest)
	_, _ = fmt.Fprintf(w, "Run:       %s\n", r.RunID)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
