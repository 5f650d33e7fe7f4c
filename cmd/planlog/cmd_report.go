package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juliosaraiva/planlog/internal/emitter"
	"github.com/juliosaraiva/planlog/internal/logging"
	"github.com/juliosaraiva/planlog/internal/parser"
	"github.com/juliosaraiva/planlog/internal/report"
)

type reportFlags struct {
	markdown   bool
	attributes []string
	output     string
}

func newReportCmd(a *app) *cobra.Command {
	var fl reportFlags

	cmd := &cobra.Command{
		Use:   "report <dir...>",
		Short: "Aggregate run properties into attribute tables",
		Long: "report loads the properties file of every run below the given\n" +
			"directories and prints one table per attribute, with a row per\n" +
			"domain and a column per algorithm.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, a, fl, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&fl.markdown, "markdown", false, "Render Markdown tables instead of ASCII")
	f.StringSliceVarP(&fl.attributes, "attributes", "a", nil, "Only report these attributes (comma-separated)")
	f.StringVarP(&fl.output, "output", "o", "", "Write the report to a file instead of stdout")
	return cmd
}

func runReport(cmd *cobra.Command, a *app, fl reportFlags, roots []string) error {
	log := logging.Component(a.logger, "report")

	mode, err := report.ParseMode(a.cfg.Report.Mode)
	if err != nil {
		return err
	}
	if fl.markdown {
		mode = report.Markdown
	}

	attrs, err := selectAttributes(a.cfg.Report.Attributes, fl.attributes)
	if err != nil {
		return err
	}

	records, err := loadRecords(roots, a.cfg.PropertiesFile)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no %s found below %v", a.cfg.PropertiesFile, roots)
	}
	log.Info("loaded runs", zap.Int("runs", len(records)), zap.Int("attributes", len(attrs)))

	rep := report.New(records, report.Options{
		Attributes:      attrs,
		Mode:            mode,
		ErrorAttributes: a.cfg.ErrorAttributes,
	})

	var out io.Writer = cmd.OutOrStdout()
	if fl.output != "" {
		f, err := os.Create(fl.output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := rep.Render(out); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if fl.output != "" {
		log.Info("report written", zap.String("path", fl.output))
	}
	return nil
}

// selectAttributes keeps the configured attributes named in names, in the
// given order. Names missing from the config are summed.
func selectAttributes(configured []report.Attribute, names []string) ([]report.Attribute, error) {
	if len(names) == 0 {
		return configured, nil
	}

	byName := make(map[string]report.Attribute, len(configured))
	for _, attr := range configured {
		byName[attr.Name] = attr
	}

	attrs := make([]report.Attribute, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("empty attribute name")
		}
		attr, ok := byName[name]
		if !ok {
			attr = report.Attribute{Name: name, Function: report.Sum}
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// loadRecords reads every properties file below roots.
func loadRecords(roots []string, propertiesFile string) ([]parser.Record, error) {
	var records []parser.Record
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() != propertiesFile {
				return nil
			}
			rec, err := emitter.LoadProperties(path)
			if err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("load properties: %w", err)
		}
	}
	return records, nil
}
