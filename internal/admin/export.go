package admin

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/placementbot/internal/store"
)

type sheetSpec struct {
	title  string
	header []string
	rows   [][]string
}

// ExportFileName names the workbook sent by /export.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("registrations_%s.xlsx", now.Format("2006-01-02"))
}

func buildWorkbook(students []store.StudentRecord, payments []store.PaymentRecord) ([]byte, error) {
	sheets := []sheetSpec{studentSheet(students), paymentSheet(payments)}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.title); err != nil {
				return nil, fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.title); err != nil {
			return nil, fmt.Errorf("export: new sheet %s: %w", s.title, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheetSpec, headerStyle int) error {
	for c, h := range s.header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellStr(s.title, cell, h); err != nil {
			return fmt.Errorf("export: set cell %s!%s: %w", s.title, cell, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(s.header))
	_ = f.SetCellStyle(s.title, "A1", last+"1", headerStyle)
	_ = f.AutoFilter(s.title, "A1:"+last+"1", nil)

	for r, row := range s.rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(s.title, cell, val); err != nil {
				return fmt.Errorf("export: set cell %s!%s: %w", s.title, cell, err)
			}
		}
	}

	for c := range s.header {
		width := len(s.header[c])
		for r := 0; r < len(s.rows) && r < 50; r++ {
			if l := len(s.rows[r][c]); l > width {
				width = l
			}
		}
		w := float64(width) * 0.9
		w = max(w, 12)
		w = min(w, 40)
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(s.title, col, col, w)
	}
	return nil
}

func studentSheet(students []store.StudentRecord) sheetSpec {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{
			strconv.FormatInt(s.UserID, 10),
			s.StudentID,
			s.FullName,
			s.Email,
			s.Section,
			s.RegisteredAt.Format(time.RFC3339),
		})
	}
	return sheetSpec{
		title:  "Students",
		header: []string{"User ID", "Student ID", "Full Name", "Email", "Section", "Registered At"},
		rows:   rows,
	}
}

func paymentSheet(payments []store.PaymentRecord) sheetSpec {
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			p.ID,
			strconv.FormatInt(p.UserID, 10),
			p.StudentID,
			p.Method.Label(),
			p.FTNumber,
			p.Reference,
			strconv.Itoa(p.Amount),
			string(p.Status),
			p.PaidAt.Format(time.RFC3339),
		})
	}
	return sheetSpec{
		title:  "Payments",
		header: []string{"Payment ID", "User ID", "Student ID", "Method", "FT Number", "Reference", "Amount (ETB)", "Status", "Paid At"},
		rows:   rows,
	}
}
