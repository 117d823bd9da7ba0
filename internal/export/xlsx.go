// Package export writes screening reports to files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/scoring"
)

const (
	summarySheet   = "Summary"
	rankedSheet    = "Ranked Candidates"
	breakdownSheet = "Agent Breakdown"

	headerColor = "4472C4"
)

// tierColors fills ranked rows by tier.
var tierColors = map[string]string{
	"Exceptional":   "C6EFCE",
	"Strong":        "E2EFDA",
	"Adequate":      "FFEB9C",
	"Below Average": "FFC7CE",
	"Poor":          "FF9999",
}

// XLSX writes report as a workbook with a summary, the ranking and each
// agent's reasoning. The .xlsx extension is added when missing. It returns
// the path written.
func XLSX(report *screening.Report, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", err
	}
	for _, name := range []string{rankedSheet, breakdownSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("create %s sheet: %w", name, err)
		}
	}

	if err := writeSummary(f, report); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRanked(f, report.Results); err != nil {
		return "", fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}
	if err := writeBreakdown(f, report.Results); err != nil {
		return "", fmt.Errorf("failed to create breakdown sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

// sheetWriter collects the first error of a run of cell writes.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, style int) {
	if w.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		w.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, from, to, style)
}

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetColWidth(w.sheet, col, col, width)
	}
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, report *screening.Report) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	w := &sheetWriter{f: f, sheet: summarySheet}
	w.widths(28, 60)

	rows := [][2]any{
		{"Run ID", report.RunID},
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05")},
		{"Elapsed (s)", fmt.Sprintf("%.1f", report.Elapsed.Seconds())},
		{"Candidates scored", len(report.Results)},
	}
	if req := report.Requirements; req != nil {
		rows = append(rows,
			[2]any{"Role level", req.RoleLevel},
			[2]any{"Domain", req.Domain},
			[2]any{"Minimum experience (years)", req.MinExperienceYears},
			[2]any{"Required skills", strings.Join(req.RequiredSkills, ", ")},
			[2]any{"Preferred skills", strings.Join(req.PreferredSkills, ", ")},
		)
	}
	for _, c := range scoring.Categories {
		rows = append(rows, [2]any{"Weight: " + string(c), report.Weights.Of(c)})
	}
	if len(report.Issues) > 0 {
		rows = append(rows, [2]any{"Validation issues", strings.Join(report.Issues, "\n")})
	}

	for i, row := range rows {
		w.set(1, i+1, row[0])
		w.set(2, i+1, row[1])
		w.style(1, i+1, 1, i+1, labelStyle)
	}
	return w.err
}

func writeRanked(f *excelize.File, results []scoring.CandidateResult) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	fills := make(map[string]int, len(tierColors))
	for tier, color := range tierColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		fills[tier] = style
	}

	w := &sheetWriter{f: f, sheet: rankedSheet}
	headers := []string{"Rank", "Candidate ID", "Name", "Email", "Phone", "Total Score", "Technical", "Career", "Fit", "Tier", "Confidence", "Percentile"}
	w.widths(8, 20, 25, 30, 18, 12, 12, 12, 12, 15, 12, 12)
	for i, h := range headers {
		w.set(i+1, 1, h)
	}
	w.style(1, 1, len(headers), 1, header)

	for i, r := range results {
		row := i + 2
		values := []any{
			i + 1, r.CandidateID, r.Name, r.Email, r.Phone, r.TotalScore,
			r.Breakdown[scoring.Technical].Score,
			r.Breakdown[scoring.Career].Score,
			r.Breakdown[scoring.Fit].Score,
			r.Tier, r.Confidence, r.Percentile,
		}
		for col, v := range values {
			w.set(col+1, row, v)
		}
		if style, ok := fills[r.Tier]; ok {
			w.style(1, row, len(headers), row, style)
		}
	}
	return w.err
}

func writeBreakdown(f *excelize.File, results []scoring.CandidateResult) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	w := &sheetWriter{f: f, sheet: breakdownSheet}
	headers := []string{"Candidate ID", "Category", "Score", "Degraded", "Reasoning", "Strengths", "Weaknesses"}
	w.widths(20, 12, 10, 10, 70, 40, 40)
	for i, h := range headers {
		w.set(i+1, 1, h)
	}
	w.style(1, 1, len(headers), 1, header)

	row := 2
	for _, r := range results {
		for _, c := range scoring.Categories {
			res := r.Breakdown[c]
			w.set(1, row, r.CandidateID)
			w.set(2, row, string(c))
			w.set(3, row, res.Score)
			w.set(4, row, yesNo(res.Degraded))
			w.set(5, row, res.Reasoning)
			w.set(6, row, strings.Join(res.Strengths, "\n"))
			w.set(7, row, strings.Join(res.Weaknesses, "\n"))
			w.style(5, row, 7, row, wrap)
			row++
		}
	}
	return w.err
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
