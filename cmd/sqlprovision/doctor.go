package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/internal/doctor"
)

var (
	doctorInput     string
	doctorVerbose   bool
	doctorReference bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Run health checks on the template tree, credential key and reference data.`,
	Example: `  # Check the configured template tree
  sqlprovision doctor

  # Also probe the reference tables, with details
  sqlprovision doctor --reference --details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := doctor.Options{
			InputDir:      resolveString(doctorInput, cfg.InputDir),
			CredentialKey: cfg.Credentials.Key,
		}
		if cfg.Metadata.Source == cli.SourceFile {
			opts.MetadataFile = cfg.Metadata.File
		}

		if doctorReference && cfg.Metadata.Source != cli.SourceFile {
			r, err := openReferenceDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()
			opts.Reference = metadataProvider(r, cfg)
		}

		if !quiet {
			fmt.Println(titleStyle.Render("sqlprovision doctor - Health Check"))
		}

		report, err := doctor.New(opts).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}

		report.Print(os.Stdout, doctorVerbose)

		if report.HasErrors() {
			fmt.Println(failStyle.Render(fmt.Sprintf("%d checks failed", report.Errors)))
			return cli.GeneralError("health checks failed", nil)
		}
		if !quiet {
			fmt.Println(passStyle.Render("Ready to generate"))
		}
		return nil
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorInput, "input", "", "template tree root")
	f.BoolVar(&doctorVerbose, "details", false, "show detailed output")
	f.BoolVar(&doctorReference, "reference", false, "probe the reference database tables")
}
