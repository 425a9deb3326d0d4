package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetSpec is one sheet: a header row and data rows. Cells may be
// strings or numbers; numbers stay numeric in the file.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]any
}

type Workbook struct {
	File *excelize.File
	Kind string
}

func NewWorkbook(kind string, sheets []SheetSpec) (*Workbook, error) {
	f := excelize.NewFile()
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		if len(s.Header) > 0 {
			end := colName(len(s.Header)) + "1"
			_ = f.SetCellStyle(name, "A1", end, bold)
			_ = f.AutoFilter(name, "A1:"+end, nil)
		}

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellValue(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		setWidths(f, name, s)
	}
	return &Workbook{File: f, Kind: kind}, nil
}

// widths follow the header and the first rows, clamped to 12..40
func setWidths(f *excelize.File, sheet string, s SheetSpec) {
	for c := 1; c <= len(s.Header); c++ {
		widest := visualLen(s.Header[c-1])
		for r := 0; r < min(50, len(s.Rows)); r++ {
			if c-1 >= len(s.Rows[r]) {
				continue
			}
			if l := visualLen(fmt.Sprint(s.Rows[r][c-1])); l > widest {
				widest = l
			}
		}
		w := float64(widest) * 1.1
		if w < 12 {
			w = 12
		}
		if w > 40 {
			w = 40
		}
		_ = f.SetColWidth(sheet, colName(c), colName(c), w)
	}
}

// FileName is "<kind>_YYYY-MM-DD.xlsx".
func (w *Workbook) FileName(now time.Time) string {
	return sanitizeFileName(fmt.Sprintf("%s_%s.xlsx", w.Kind, now.Format("2006-01-02")))
}

// SaveTo writes the workbook into dir and returns the path.
func (w *Workbook) SaveTo(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, w.FileName(now))
	return path, w.File.SaveAs(path)
}

func colName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen counts runes, tabs as 4.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}
