package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wastelens/internal/analytics"
	"wastelens/internal/dataset"
	"wastelens/pkg/contracts/domain"
)

// wastereport builds a wastage report from an Excel workbook without
// running the server. It prints the KPI summary to stdout and can write
// the breakdown tables as CSV files next to a JSON report.
func main() {
	input := flag.String("in", "", "path to the .xlsx workbook (required)")
	outputDir := flag.String("out", "", "directory for CSV and JSON output (skipped when empty)")
	currency := flag.String("currency", "$", "currency symbol when the workbook carries none")
	startDate := flag.String("start", "", "inclusive start date filter, YYYY-MM-DD")
	endDate := flag.String("end", "", "inclusive end date filter, YYYY-MM-DD")
	regions := flag.String("regions", "", "comma-separated region filter")
	sites := flag.String("sites", "", "comma-separated site filter")
	locations := flag.String("locations", "", "comma-separated location filter")
	operators := flag.String("operators", "", "comma-separated operator filter")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		slog.Error("failed to read workbook", "path", *input, "error", err)
		os.Exit(1)
	}

	spec, err := buildFilterSpec(*startDate, *endDate, *regions, *sites, *locations, *operators)
	if err != nil {
		slog.Error("invalid filter", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	loader := dataset.NewLoader(slog.Default(), *currency)

	ds, err := loader.LoadExcel(ctx, data)
	if err != nil {
		slog.Error("failed to load workbook", "path", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("loaded dataset",
		"records", len(ds.Records),
		"fingerprint", ds.Fingerprint)

	view, err := dataset.Apply(ds, spec)
	if err != nil {
		slog.Error("failed to apply filter", "error", err)
		os.Exit(1)
	}

	report := analytics.BuildReport(view, spec)
	printKPIs(report.KPIs)

	if *outputDir != "" {
		if err := writeReport(report, *outputDir); err != nil {
			slog.Error("failed to write report files", "error", err)
			os.Exit(1)
		}
		slog.Info("report written", "dir", *outputDir)
	}
}

func buildFilterSpec(start, end, regions, sites, locations, operators string) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Regions:   splitList(regions),
		Sites:     splitList(sites),
		Locations: splitList(locations),
		Operators: splitList(operators),
	}

	var err error
	if start != "" {
		if spec.StartDate, err = time.Parse("2006-01-02", start); err != nil {
			return domain.FilterSpec{}, fmt.Errorf("parse start date %q: %w", start, err)
		}
	}
	if end != "" {
		if spec.EndDate, err = time.Parse("2006-01-02", end); err != nil {
			return domain.FilterSpec{}, fmt.Errorf("parse end date %q: %w", end, err)
		}
	}
	if err := spec.Validate(); err != nil {
		return domain.FilterSpec{}, err
	}
	return spec, nil
}

func splitList(csvList string) []string {
	if csvList == "" {
		return nil
	}
	parts := strings.Split(csvList, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printKPIs(k domain.KPISnapshot) {
	fmt.Println("=== WASTAGE SUMMARY ===")
	fmt.Printf("Records:          %d\n", k.RecordCount)
	fmt.Printf("Total cost:       %s%.2f\n", k.Currency, k.TotalCost)
	fmt.Printf("Total weight:     %.2f kg\n", k.TotalWeight)
	fmt.Printf("Avg cost per kg:  %s%.2f\n", k.Currency, k.AvgCostPerKg)
	fmt.Printf("Top loss reason:  %s\n", k.TopLossReason)
	fmt.Printf("Pre-consumer:     %.1f%%\n", k.PreConsumerPct)
}

// writeReport saves the full report as JSON plus one CSV per breakdown
// table.
func writeReport(report domain.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), payload, 0o644); err != nil {
		return fmt.Errorf("write report.json: %w", err)
	}

	tables := map[string][][]string{
		"cost_by_date.csv":        dateRows(report.CostByDate),
		"weight_by_date.csv":      dateRows(report.WeightByDate),
		"co2_by_date.csv":         dateRows(report.CO2ByDate),
		"loss_reasons.csv":        countRows(report.LossReasonCounts),
		"dispositions.csv":        countRows(report.DispositionCounts),
		"stages.csv":              countRows(report.StageCounts),
		"categories.csv":          valueRows(report.CategoryTotals),
		"cost_per_kg_by_site.csv": valueRows(report.CostPerKgBySite),
		"co2_by_disposition.csv":  valueRows(report.CO2ByDisposition),
		"cost_by_operator.csv":    valueRows(report.CostByOperator),
		"monthly.csv":             monthlyRows(report.Monthly),
	}
	for name, rows := range tables {
		if err := writeCSVFile(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func dateRows(points []domain.DateValue) [][]string {
	rows := [][]string{{"date", "value"}}
	for _, p := range points {
		rows = append(rows, []string{p.Date.Format("2006-01-02"), formatFloat(p.Value)})
	}
	return rows
}

func valueRows(entries []domain.KeyValue) [][]string {
	rows := [][]string{{"key", "value"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Key, formatFloat(e.Value)})
	}
	return rows
}

func countRows(entries []domain.KeyCount) [][]string {
	rows := [][]string{{"key", "count"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Key, strconv.Itoa(e.Count)})
	}
	return rows
}

func monthlyRows(entries []domain.MonthlyTotals) [][]string {
	rows := [][]string{{"month", "cost", "weight"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Label, formatFloat(e.Cost), formatFloat(e.Weight)})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
