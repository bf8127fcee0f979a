package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

const (
	sheetName  = "Submissions"
	timeLayout = "2006-01-02 15:04:05"
)

// columns lists header titles and widths in sheet order
var columns = []struct {
	title string
	width float64
}{
	{"ID", 38},
	{"Status", 16},
	{"Owner", 28},
	{"Email", 30},
	{"Vehicle Type", 16},
	{"Version", 9},
	{"Created", 20},
	{"Updated", 20},
}

// ExcelWriter renders submission reports as xlsx workbooks
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// ContentType is the MIME type of the produced workbook
func (w *ExcelWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteSubmissions writes one header row and one row per submission to out
func (w *ExcelWriter) WriteSubmissions(out io.Writer, subs []*entity.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.title

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, sub := range subs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			sub.ID,
			sub.Status.String(),
			sub.OwnerFullName,
			sub.OwnerEmail,
			string(sub.VehicleType),
			sub.Version,
			formatTime(sub.CreatedAt),
			formatTime(sub.UpdatedAt),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("Submission report written", zap.Int("rows", len(subs)))
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

var _ port.ReportWriter = (*ExcelWriter)(nil)
