package importer

import (
	"bytes"
	"encoding/csv"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"invoicer/internal/core"
)

// Magic numbers of the supported container formats. Anything else is
// treated as delimited text.
var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}                         // xlsx
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1} // legacy xls
)

// maxXLSRows bounds how many rows are pulled out of a legacy workbook.
const maxXLSRows = 65536

// decodeTable turns an opaque spreadsheet blob into rows of raw cell
// values. The first sheet of a workbook is used. A blob that cannot be
// decoded in any supported format yields a core.ParseError.
func decodeTable(blob []byte) ([][]string, error) {
	switch {
	case bytes.HasPrefix(blob, zipMagic):
		return decodeXLSX(blob)
	case bytes.HasPrefix(blob, oleMagic):
		return decodeXLS(blob)
	default:
		return decodeCSV(blob)
	}
}

func decodeXLSX(blob []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, &core.ParseError{Reason: "open xlsx workbook: " + err.Error()}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &core.ParseError{Reason: "read xlsx rows: " + err.Error()}
	}
	return rows, nil
}

func decodeXLS(blob []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(blob), "utf-8")
	if err != nil {
		return nil, &core.ParseError{Reason: "open xls workbook: " + err.Error()}
	}
	rows := wb.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, &core.ParseError{Reason: "xls workbook has no rows"}
	}
	return rows, nil
}

func decodeCSV(blob []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(blob))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &core.ParseError{Reason: "read csv: " + err.Error()}
	}
	if len(rows) == 0 {
		return nil, &core.ParseError{Reason: "no rows in input"}
	}
	// A single unparseable binary blob often survives csv.ReadAll as one
	// giant cell; reject it instead of importing garbage.
	if len(rows) == 1 && len(rows[0]) == 1 && !utf8Valid(rows[0][0]) {
		return nil, &core.ParseError{Reason: "input is not tabular text"}
	}
	return rows, nil
}

func utf8Valid(s string) bool {
	for _, r := range s {
		if r == 0xFFFD || r == 0 {
			return false
		}
	}
	return true
}
