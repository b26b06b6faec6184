package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"math-quiz-service/internal/app"
)

const (
	ResultsSheet   = "Results"
	HistogramSheet = "Histogram"
)

var resultsHeader = []interface{}{"اسم الطالب", "الصف الدراسي", "الامتحان", "الدرجة", "النسبة", "التاريخ"}

var tierFills = map[app.ColorTier]string{
	app.TierGreen:  "#C6EFCE",
	app.TierYellow: "#FFEB9C",
	app.TierOrange: "#FCD5B4",
	app.TierRed:    "#FFC7CE",
}

// WriteWorkbook renders results as an XLSX workbook with a results table and a
// histogram sheet.
func WriteWorkbook(w io.Writer, results app.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return err
	}
	if err := writeResults(f, results.Rows); err != nil {
		return fmt.Errorf("results sheet: %w", err)
	}
	if _, err := f.NewSheet(HistogramSheet); err != nil {
		return err
	}
	if err := writeHistogram(f, results.Histogram); err != nil {
		return fmt.Errorf("histogram sheet: %w", err)
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeResults(f *excelize.File, rows []app.ResultRow) error {
	rtl := true
	if err := f.SetSheetView(ResultsSheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &resultsHeader); err != nil {
		return err
	}

	styles := make(map[app.ColorTier]int, len(tierFills))
	for tier, color := range tierFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return err
		}
		styles[tier] = id
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.StudentName,
			row.GradeLabel,
			row.QuizTitle,
			fmt.Sprintf("%d / %d", row.ActualScore, row.TotalMarks),
			row.Score,
			row.CompletedOn,
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return err
		}
		scoreCell, _ := excelize.CoordinatesToCellName(4, i+2)
		if err := f.SetCellStyle(ResultsSheet, scoreCell, scoreCell, styles[row.Tier]); err != nil {
			return err
		}
	}
	return f.SetColWidth(ResultsSheet, "A", "F", 20)
}

func writeHistogram(f *excelize.File, buckets []app.HistogramBucket) error {
	header := []interface{}{"range", "count"}
	if err := f.SetSheetRow(HistogramSheet, "A1", &header); err != nil {
		return err
	}
	for i, b := range buckets {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{b.Range, b.Count}
		if err := f.SetSheetRow(HistogramSheet, cell, &values); err != nil {
			return err
		}
	}
	if len(buckets) == 0 {
		return nil
	}

	last := len(buckets) + 1
	return f.AddChart(HistogramSheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", HistogramSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", HistogramSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", HistogramSheet, last),
		}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
