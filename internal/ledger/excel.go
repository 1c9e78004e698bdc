package ledger

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"rankscout/internal/config"
	"rankscout/internal/logging"
	"rankscout/pkg/models"
)

// StatusCompleted marks a row as fully processed. Rows carrying it are
// skipped on re-runs, which makes resuming an interrupted batch safe.
const StatusCompleted = "Completed"

// Ledger is the row store the runner reads tasks from and writes results
// back into.
type Ledger interface {
	Tasks() ([]models.SearchTask, error)
	WriteRank(row int, outcome models.RankOutcome) error
	WriteAudit(row int, outcome models.AuditOutcome) error
	MarkCompleted(row int) error
	Save() error
	Close() error
}

// ExcelLedger keeps the keyword worklist and its results in one worksheet
// of an xlsx workbook.
type ExcelLedger struct {
	file   *excelize.File
	path   string
	sheet  string
	cols   map[string]int
	config config.LedgerColumns
	logger logging.Logger
}

// Open loads the workbook and resolves the configured column headers
// against the sheet's first row. Unknown headers are a configuration error,
// caught before any task runs.
func Open(cfg *config.Config, logger logging.Logger) (*ExcelLedger, error) {
	f, err := excelize.OpenFile(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger workbook: %w", err)
	}

	l := &ExcelLedger{
		file:   f,
		path:   cfg.Ledger.Path,
		sheet:  cfg.Ledger.Sheet,
		config: cfg.Ledger.Columns,
		logger: logger,
	}
	if err := l.resolveColumns(); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

func (l *ExcelLedger) resolveColumns() error {
	rows, err := l.file.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", l.sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %q has no header row", l.sheet)
	}

	byHeader := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		byHeader[strings.TrimSpace(header)] = i + 1
	}

	l.cols = make(map[string]int)
	for name, header := range map[string]string{
		"keyword":   l.config.Keyword,
		"target":    l.config.Target,
		"rank":      l.config.Rank,
		"url":       l.config.RankingURL,
		"deletion":  l.config.Deletion,
		"titleMeta": l.config.TitleMeta,
		"content":   l.config.Content,
		"status":    l.config.Status,
	} {
		col, ok := byHeader[header]
		if !ok {
			return fmt.Errorf("sheet %q is missing column %q", l.sheet, header)
		}
		l.cols[name] = col
	}
	return nil
}

// Tasks returns the pending rows: every row with both a keyword and a target
// whose status is not yet completed. Row numbers are 1-based worksheet rows.
func (l *ExcelLedger) Tasks() ([]models.SearchTask, error) {
	rows, err := l.file.GetRows(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", l.sheet, err)
	}

	var tasks []models.SearchTask
	for i := 1; i < len(rows); i++ {
		row := i + 1
		keyword := strings.TrimSpace(l.cellAt(rows[i], l.cols["keyword"]))
		target := strings.TrimSpace(l.cellAt(rows[i], l.cols["target"]))
		if keyword == "" || target == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(l.cellAt(rows[i], l.cols["status"])), StatusCompleted) {
			continue
		}
		tasks = append(tasks, models.SearchTask{
			Keyword: keyword,
			Target:  target,
			Row:     row,
		})
	}
	return tasks, nil
}

// cellAt indexes a GetRows row slice, which is ragged: trailing empty cells
// are simply absent.
func (l *ExcelLedger) cellAt(row []string, col int) string {
	if col-1 < len(row) {
		return row[col-1]
	}
	return ""
}

func (l *ExcelLedger) WriteRank(row int, outcome models.RankOutcome) error {
	if err := l.setCell(row, l.cols["rank"], outcome.String()); err != nil {
		return err
	}
	return l.setCell(row, l.cols["url"], outcome.URL)
}

// WriteAudit clears the three category cells, then fills exactly the one the
// outcome selects. Low-product and optimized pages leave all three empty;
// the category is implicit in the cleared row.
func (l *ExcelLedger) WriteAudit(row int, outcome models.AuditOutcome) error {
	for _, name := range []string{"deletion", "titleMeta", "content"} {
		if err := l.setCell(row, l.cols[name], ""); err != nil {
			return err
		}
	}

	var col int
	switch outcome.Category {
	case models.AuditDeletion:
		col = l.cols["deletion"]
	case models.AuditTitleMeta:
		col = l.cols["titleMeta"]
	case models.AuditContent:
		col = l.cols["content"]
	default:
		return nil
	}
	return l.setCell(row, col, outcome.Value)
}

func (l *ExcelLedger) MarkCompleted(row int) error {
	return l.setCell(row, l.cols["status"], StatusCompleted)
}

func (l *ExcelLedger) setCell(row, col int, value string) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := l.file.SetCellValue(l.sheet, name, value); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", name, err)
	}
	return nil
}

// Save writes the workbook back to disk. Called after every task so an
// interrupted batch loses at most the row in flight.
func (l *ExcelLedger) Save() error {
	if err := l.file.SaveAs(l.path); err != nil {
		return fmt.Errorf("failed to save ledger workbook: %w", err)
	}
	return nil
}

func (l *ExcelLedger) Close() error {
	return l.file.Close()
}
