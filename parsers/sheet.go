package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither csv nor xlsx.
var ErrUnsupportedFormat = errors.New("format de fichier non pris en charge (csv ou xlsx attendu)")

// Row is one data row with its 1-based line number in the source file.
type Row struct {
	Line  int
	Cells []string
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Sheet is a header row followed by data rows.
type Sheet struct {
	Header []string
	Rows   []Row
}

// ReadSheet reads a csv or xlsx upload. sheetName selects an xlsx sheet and
// defaults to the first one.
func ReadSheet(filename string, r io.Reader, sheetName string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r, sheetName)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ReadCSV(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lecture du fichier CSV impossible : %w", err)
	}

	reader := csv.NewReader(decodeText(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fichier CSV illisible : %w", err)
	}
	return toSheet(records)
}

func ReadXLSX(r io.Reader, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("fichier Excel illisible : %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("le classeur ne contient aucune feuille")
		}
		sheetName = sheets[0]
	}
	// Raw values keep dates as serial numbers instead of locale-formatted text.
	records, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("feuille %q illisible : %w", sheetName, err)
	}
	return toSheet(records)
}

func toSheet(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("le fichier est vide")
	}
	s := &Sheet{Header: records[0]}
	for i, rec := range records[1:] {
		s.Rows = append(s.Rows, Row{Line: i + 2, Cells: rec})
	}
	return s, nil
}
