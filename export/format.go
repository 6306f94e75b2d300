// Package export renders assignment reports as CSV, Excel, PDF and JSON.
package export

import (
	"strings"

	"github.com/pkg/errors"
)

// Format is a report output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
)

// ErrUnsupportedFormat is returned for unknown formats and for formats a report does not offer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// SummaryFormats lists the formats the assignment summary can be written in.
var SummaryFormats = []Format{FormatCSV, FormatExcel, FormatPDF, FormatJSON}

// DetailedFormats lists the formats the detailed student/mentor report can be written in.
var DetailedFormats = []Format{FormatCSV, FormatExcel}

// ParseFormat accepts a format name, case insensitive. "xlsx" is read as excel.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

// ParseFormats parses a list of format names, rejecting the first unknown one.
func ParseFormats(names []string) ([]Format, error) {
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ContentType returns the MIME type used when serving the report.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

func supports(list []Format, f Format) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}
