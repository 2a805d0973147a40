package export

import (
	"fmt"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Format identifies a rendered file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// File is a rendered dataset ready to be served.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// ParseFormat normalises user input, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Render dispatches to the exporter for the format. baseName is used without extension.
func Render(format Format, data Dataset, baseName string) (*File, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("%s export requires at least one header", format)
	}
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		body, err = NewCSVExporter().Render(data)
		contentType = "text/csv"
	case FormatPDF:
		body, err = NewPDFExporter().Render(data)
		contentType = "application/pdf"
	case FormatXLSX:
		body, err = NewXLSXExporter().Render(data)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &File{Name: baseName + "." + string(format), ContentType: contentType, Body: body}, nil
}
