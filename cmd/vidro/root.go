package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "vidro",
		Short:         "Manage the Vidro glass catalog and visit schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			a, err := newApp(cmd.Context(), flags, out, errOut)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a := appFrom(cmd); a != nil {
				a.close(context.Background())
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetContext(context.Background())

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a vidro.toml file")
	pf.StringVar(&flags.baseURL, "base-url", "", "Vidro API base URL (overrides api.base_url)")
	pf.StringVar(&flags.locale, "locale", "", "alert language: es or en")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")

	root.AddCommand(newGlassesCmd(), newVisitsCmd(), newVersionCmd(out))
	return root
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "vidro %s (commit %s, built %s)\n", version, gitCommit, buildTime)
		},
	}
}
