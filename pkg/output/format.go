// Package output provides utilities for formatting and displaying deal results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Report is one computed deal ready for display.
type Report struct {
	Name   string      `json:"name" yaml:"name"`
	Result deal.Result `json:"result" yaml:"result"`
}

type metricLine struct {
	label string
	value float64
}

func metricLines(result deal.Result) []metricLine {
	m := result.Metrics
	lines := []metricLine{{"Stamp duty", m.StampDuty}}
	if result.Variant == deal.International {
		lines = append(lines,
			metricLine{"Lending fee", m.LendingFee},
			metricLine{"Project management", m.ProjectManagement},
		)
	}
	return append(lines,
		metricLine{"Capital in", m.CapitalIn},
		metricLine{"Gross development value", m.GrossDevelopmentValue},
		metricLine{"Uplift", m.Uplift},
		metricLine{"First charge lending", m.FirstChargeLending},
		metricLine{"Capital left in", m.CapitalLeftIn},
		metricLine{"Capital released", m.CapitalReleased},
		metricLine{"Average weekly rate", m.AverageWeeklyRate},
		metricLine{"Gross annual rent", m.GrossAnnualRent},
		metricLine{"Annual mortgage", m.AnnualMortgage},
		metricLine{"Annual operating cost", m.AnnualOperatingCost},
		metricLine{"Annual management cost", m.AnnualManagementCost},
		metricLine{"Net annual cash flow", m.NetAnnualCashFlow},
	)
}

func returnDisplay(row deal.ReturnRow) string {
	if deal.IsPercentageMetric(row.Metric) {
		return format.Percent(row.Percentage)
	}
	return row.Display
}

// PrettyFormat writes a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, reports []Report) {
	p := message.NewPrinter(language.English)
	for i, report := range reports {
		result := report.Result
		_, _ = p.Fprintf(w, "--- Results for deal %s (%s) ---\n", report.Name, result.Variant)
		_, _ = p.Fprintf(w, "%-26s | %s\n", "Metric", "Amount")
		_, _ = p.Fprintf(w, "%-26s | %s\n", "______", "______")
		for _, line := range metricLines(result) {
			_, _ = p.Fprintf(w, "%-26s | %s\n", line.label, format.Currency(line.value))
		}

		if len(result.Growth) > 0 {
			_, _ = p.Fprintf(w, "\nCapital growth (%.1f%% per year):\n", constants.AnnualGrowthRate*constants.PercentageMultiplier)
			_, _ = p.Fprintf(w, "Year | Value        | Increase\n")
			for _, row := range result.Growth {
				_, _ = p.Fprintf(w, "%4d | %12s | %s\n", row.Year, row.DisplayValue, row.DisplayIncrease)
			}
		}

		if len(result.CapitalGain) > 0 {
			_, _ = p.Fprintf(w, "\nCapital gain:\n")
			for _, item := range result.CapitalGain {
				_, _ = p.Fprintf(w, "%-32s | %s\n", item.Label, item.Display)
			}
		}

		if len(result.Returns) > 0 {
			_, _ = p.Fprintf(w, "\nReturns:\n")
			for _, row := range result.Returns {
				_, _ = p.Fprintf(w, "%-32s | %s\n", row.Metric, returnDisplay(row))
			}
		}

		if len(result.Advisories) > 0 {
			_, _ = p.Fprintf(w, "\nAdvisories:\n")
			for _, advisory := range result.Advisories {
				_, _ = p.Fprintf(w, "- %s: %s\n", advisory.Stage, advisory.Message)
			}
		}

		if i < len(reports)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes one row per figure in comma-separated value format.
func CsvFormat(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"deal", "variant", "section", "label", "value", "display"}); err != nil {
		return err
	}

	amount := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, report := range reports {
		result := report.Result
		variant := string(result.Variant)
		row := func(section, label, value, display string) error {
			return cw.Write([]string{report.Name, variant, section, label, value, display})
		}

		for _, line := range metricLines(result) {
			if err := row("metrics", line.label, amount(line.value), format.Currency(line.value)); err != nil {
				return err
			}
		}
		for _, growth := range result.Growth {
			if err := row("growth", fmt.Sprintf("Year %d", growth.Year), amount(growth.Value), growth.DisplayValue); err != nil {
				return err
			}
		}
		for _, item := range result.CapitalGain {
			if err := row("capitalGain", item.Label, amount(item.Amount), item.Display); err != nil {
				return err
			}
		}
		for _, ret := range result.Returns {
			value := amount(ret.Value)
			if deal.IsPercentageMetric(ret.Metric) {
				value = amount(ret.Percentage)
			}
			if err := row("returns", ret.Metric, value, returnDisplay(ret)); err != nil {
				return err
			}
		}
		for _, advisory := range result.Advisories {
			if err := row("advisory", string(advisory.Stage), "", advisory.Message); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// JSONFormat writes the reports as indented JSON.
func JSONFormat(w io.Writer, reports []Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// YAMLFormat writes the reports as YAML.
func YAMLFormat(w io.Writer, reports []Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders the reports in the named output format.
func Write(w io.Writer, outputFormat string, reports []Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		PrettyFormat(w, reports)
		return nil
	case constants.OutputFormatCSV:
		return CsvFormat(w, reports)
	case constants.OutputFormatJSON:
		return JSONFormat(w, reports)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, reports)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}
