package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/api"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/config"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/database"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/filter"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/lookup"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/session"
)

type exportOptions struct {
	report   string
	form     filter.Form
	ranges   []string
	drill    []string
	format   string
	out      string
	printout bool
}

func exportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a report once and write the active table to a file",
		Example: `  report-web export --report loan-past-due --branch 3 --range past_due_days_from=30 --format xlsx
  report-web export --report personal-fd --drill 3 --drill "Fixed 12M" --out fd.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.report, "report", "r", "", "report type key")
	f.StringVar(&opts.form.BranchID, "branch", "", "branch id, empty for all branches")
	f.StringVar(&opts.form.ProductID, "product", "", "product id")
	f.StringArrayVar(&opts.ranges, "range", nil, "range bound as <criterion>_from=<n> or <criterion>_to=<n>")
	f.StringVar(&opts.form.LastTransactionDate, "last-transaction", "", "exact last transaction date (YYYY-MM-DD)")
	f.StringVar(&opts.form.OpenFrom, "open-from", "", "open date lower bound (YYYY-MM-DD)")
	f.StringVar(&opts.form.OpenTo, "open-to", "", "open date upper bound (YYYY-MM-DD)")
	f.StringArrayVar(&opts.drill, "drill", nil, "row id to drill into; repeat to go deeper")
	f.StringVarP(&opts.format, "format", "f", "csv", "csv, json or xlsx")
	f.StringVarP(&opts.out, "out", "o", "", "output file, defaults to the report's export name")
	f.BoolVar(&opts.printout, "print", false, "write the print-ready HTML page instead")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	def, err := reports.Default().Get(opts.report)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	opts.form.Ranges = make(map[string]string, len(opts.ranges))
	for _, kv := range opts.ranges {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --range %q, expected key=value", kv)
		}
		opts.form.Ranges[strings.TrimSpace(k)] = v
	}

	db, err := database.New(cfg.Database, cfg.Server.QueryTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	s := session.New(uuid.NewString(), def, db)
	s.SetInstitute(lookup.NewService(db, nil, 0).InstituteName(ctx, def.Category))

	if err := s.Generate(ctx, opts.form); err != nil {
		return err
	}
	for _, id := range opts.drill {
		if err := s.Drill(id); err != nil {
			return err
		}
	}

	doc := s.Document()
	out := opts.out
	if out == "" {
		if opts.printout {
			out = doc.BaseName + ".html"
		} else {
			out = doc.FileName(format)
		}
	}

	n, err := writeExport(out, doc, format, opts.printout)
	if err != nil {
		return err
	}
	log.Info().Str("file", out).Int("rows", n).Msg("Report exported")
	return nil
}

// writeExport renders doc in memory and writes path only when rendering
// succeeds, so an empty table leaves no file behind
func writeExport(path string, doc export.Document, format export.ExportFormat, printout bool) (int, error) {
	var buf bytes.Buffer
	exporter := export.NewExporter()

	rows := doc.Table.Len()
	if printout {
		if err := exporter.Print(&buf, doc); err != nil {
			return 0, err
		}
	} else {
		result, err := exporter.Export(&buf, format, doc)
		if err != nil {
			return 0, err
		}
		rows = result.RowCount
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return rows, nil
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			now := time.Now()
			token, err := api.SignToken(cfg.JWT.Secret, subject, jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "report-user", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
