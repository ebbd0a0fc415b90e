package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bgricker/phrasereport/internal/output"
	"github.com/bgricker/phrasereport/internal/report"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode protobuf reports and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecode,
	}
	cmd.Flags().Bool("delimited", false, "files hold length-delimited report streams")
	return cmd
}

func runDecode(cmd *cobra.Command, args []string) error {
	delimited, err := cmd.Flags().GetBool("delimited")
	if err != nil {
		return fmt.Errorf("parse --delimited: %w", err)
	}

	var reports []report.TechnicalReportData
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read report %q: %w", path, err)
		}
		if delimited {
			batch, err := report.ReadDelimited(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode %q: %w", path, err)
			}
			reports = append(reports, batch...)
			continue
		}
		r, err := report.Decode(data)
		if err != nil {
			return fmt.Errorf("decode %q: %w", path, err)
		}
		reports = append(reports, r)
	}

	return output.NewJSON(cmd.OutOrStdout()).Render(output.Document{
		Reports: reports,
		Summary: output.Summarize(reports, 0),
	})
}
