package report

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders the activity report to a PDF file at path.
func WritePDF(ctx context.Context, path string, src TaskSource, since time.Time) error {
	tasks, overdue, logs, stats, err := gather(ctx, src, since)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Activity Report: since %s", since.Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Open: %d    Done: %d    Overdue: %d    Completed in window: %d",
		stats.Open, stats.Done, stats.Overdue, stats.Completed))
	pdf.Ln(12)

	if len(overdue) > 0 {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, "Overdue")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 12)
		for _, t := range overdue {
			pdf.Cell(0, 8, fmt.Sprintf("  [%s] %s (due %s)", t.Priority, t.Title, t.DueAt.Format("2006-01-02")))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Tasks")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	if len(tasks) == 0 {
		pdf.Cell(0, 8, "  - No tasks.")
		pdf.Ln(8)
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		line := fmt.Sprintf("  %s %s (%s)", box, t.Title, t.Status)
		if t.DueAt != nil {
			line += " due " + t.DueAt.Format("2006-01-02")
		}
		pdf.Cell(0, 8, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if len(logs) > 0 {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, "Activity")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 12)
		for _, l := range logs {
			content := fmt.Sprintf("[%s] task %d %s%s",
				l.CreatedAt.Format("2006-01-02 15:04"), l.TaskID, l.Event, formatComment(l))
			pdf.MultiCell(0, 8, content, "", "", false)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}
