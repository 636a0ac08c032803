package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"revlens/internal/checks"
)

var (
	flagSuite     string
	flagCheckJSON bool
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Run declarative project autotests",
	Long:  "Run the file-existence, glob, substring and regex-count tests from a suite file against the project, plus a naive quality pass. Exits nonzero when any test fails.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSuite == "" {
			return fmt.Errorf("check needs --suite")
		}
		suite, err := checks.LoadSuite(flagSuite)
		if err != nil {
			return err
		}

		root := rootArg(args)
		results := checks.Run(root, suite)
		issues := checks.NaiveQuality(root)

		if flagCheckJSON {
			payload := struct {
				Results []checks.Result `json:"results"`
				Issues  []string        `json:"issues,omitempty"`
			}{Results: results, Issues: issues}
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
		} else {
			for _, r := range results {
				status := "PASS"
				if !r.OK {
					status = "FAIL"
				}
				fmt.Fprintf(os.Stdout, "%s  %-14s %s", status, r.Type, r.ID)
				if r.Detail != "" {
					fmt.Fprintf(os.Stdout, "  (%s)", r.Detail)
				}
				fmt.Fprintln(os.Stdout)
			}
			for _, issue := range issues {
				fmt.Fprintf(os.Stdout, "NOTE  %s\n", issue)
			}
		}

		for _, r := range results {
			if !r.OK {
				exitCode = ExitFindings
				break
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&flagSuite, "suite", "", "Suite file (.json or .yaml)")
	checkCmd.Flags().BoolVar(&flagCheckJSON, "json", false, "Emit results as JSON")
}
