// Package sheetexport writes tabular data as an Excel workbook or CSV.
//
// A layout (built in code or decoded from YAML) lists sheets, each made of
// sections stacked vertically. A section has an optional title, an optional
// header row and one row per element of the data bound to it.
package sheetexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ContentTypeXLSX is the media type of the workbook written by ToWriter.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Layout is the YAML document describing a workbook.
type Layout struct {
	Sheets []SheetLayout `yaml:"sheets"`
}

type SheetLayout struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig is one block of rows in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Data        interface{}    `yaml:"-"` // bound at runtime
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig maps a struct field (Go name or json tag) or map key to a column.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"`
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
}

type StyleTemplate struct {
	Font *FontTemplate `yaml:"font"`
	Fill *FillTemplate `yaml:"fill"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // hex, "#" optional
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

// ==================== CONSTRUCTORS ====================

// DataExporter renders bound data with a layout.
type DataExporter struct {
	layout Layout
	data   map[string]interface{}
}

func NewDataExporter() *DataExporter {
	return &DataExporter{data: make(map[string]interface{})}
}

// NewDataExporterFromYAML decodes a layout from r.
func NewDataExporterFromYAML(r io.Reader) (*DataExporter, error) {
	var layout Layout
	if err := yaml.NewDecoder(r).Decode(&layout); err != nil {
		return nil, fmt.Errorf("decode yaml layout: %w", err)
	}
	if len(layout.Sheets) == 0 {
		return nil, fmt.Errorf("layout has no sheets")
	}
	e := NewDataExporter()
	e.layout = layout
	return e, nil
}

// NewDataExporterFromYAMLString decodes a layout held in memory.
func NewDataExporterFromYAMLString(s string) (*DataExporter, error) {
	return NewDataExporterFromYAML(strings.NewReader(s))
}

// NewDataExporterFromYAMLFile decodes the layout stored at path.
func NewDataExporterFromYAMLFile(path string) (*DataExporter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open yaml layout: %w", err)
	}
	defer f.Close()
	return NewDataExporterFromYAML(f)
}

// ==================== FLUENT API ====================

// AddSheet appends an empty sheet and returns its builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	e.layout.Sheets = append(e.layout.Sheets, SheetLayout{Name: name})
	return &SheetBuilder{exporter: e, index: len(e.layout.Sheets) - 1}
}

// BindSectionData binds data (a slice of structs or maps) to section id.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// SheetNames lists the sheets of the layout in order.
func (e *DataExporter) SheetNames() []string {
	names := make([]string, 0, len(e.layout.Sheets))
	for _, s := range e.layout.Sheets {
		names = append(names, s.Name)
	}
	return names
}

type SheetBuilder struct {
	exporter *DataExporter
	index    int
}

func (sb *SheetBuilder) AddSection(config SectionConfig) *SheetBuilder {
	sheet := &sb.exporter.layout.Sheets[sb.index]
	sheet.Sections = append(sheet.Sections, config)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// ==================== OUTPUT ====================

// ToBytes renders the workbook into memory.
func (e *DataExporter) ToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.ToWriter(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter renders the workbook with one stream writer per sheet.
func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// BuildExcel renders the workbook. The caller closes the file.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.layout.Sheets) == 0 {
		return nil, fmt.Errorf("nothing to export: no sheets")
	}
	f := excelize.NewFile()
	for i, sheet := range e.layout.Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %s: %w", sheet.Name, err)
		}
		if err := e.streamSheet(f, sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (e *DataExporter) streamSheet(f *excelize.File, sheet SheetLayout) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	widths := map[int]float64{}
	for _, sec := range sheet.Sections {
		for i, col := range sec.Columns {
			if col.Width > widths[i+1] {
				widths[i+1] = col.Width
			}
		}
	}
	// Column widths must be set before the first row is written
	for col, width := range widths {
		if err := sw.SetColWidth(col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	row := 1
	for _, sec := range sheet.Sections {
		if sec.Title != "" {
			style, err := createStyle(f, sec.TitleStyle)
			if err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, []interface{}{sec.Title}, excelize.RowOpts{StyleID: style}); err != nil {
				return fmt.Errorf("write title: %w", err)
			}
			row++
		}

		if sec.ShowHeader && len(sec.Columns) > 0 {
			style, err := createStyle(f, sec.HeaderStyle)
			if err != nil {
				return err
			}
			headers := make([]interface{}, len(sec.Columns))
			for i, col := range sec.Columns {
				headers[i] = excelize.Cell{StyleID: style, Value: col.Header}
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, headers); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			row++
		}

		for i, values := range e.rows(sec) {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, values); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
			row++
		}

		// blank row between sections
		row++
	}
	return sw.Flush()
}

// ToCSV writes the first sheet as CSV: titles, headers and data rows in the
// same order as the workbook, without the blank separator rows.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.layout.Sheets) == 0 {
		return fmt.Errorf("nothing to export: no sheets")
	}
	cw := csv.NewWriter(w)
	for _, sec := range e.layout.Sheets[0].Sections {
		if sec.Title != "" {
			if err := cw.Write([]string{sec.Title}); err != nil {
				return fmt.Errorf("write csv title: %w", err)
			}
		}
		if sec.ShowHeader && len(sec.Columns) > 0 {
			headers := make([]string, len(sec.Columns))
			for i, col := range sec.Columns {
				headers[i] = col.Header
			}
			if err := cw.Write(headers); err != nil {
				return fmt.Errorf("write csv header: %w", err)
			}
		}
		for _, values := range e.rows(sec) {
			record := make([]string, len(values))
			for i, v := range values {
				record[i] = fmt.Sprint(v)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCSVBytes is ToCSV into memory.
func (e *DataExporter) ToCSVBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.ToCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ==================== RENDERING ====================

// rows extracts the column values of every element bound to sec.
// Data set on the section wins over data bound by id.
func (e *DataExporter) rows(sec SectionConfig) [][]interface{} {
	data := sec.Data
	if data == nil {
		data = e.data[sec.ID]
	}
	if data == nil {
		return nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}

	out := make([][]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		values := make([]interface{}, len(sec.Columns))
		for j, col := range sec.Columns {
			values[j] = extractValue(item, col.FieldName)
		}
		out = append(out, values)
	}
	return out
}

// extractValue reads fieldName from a struct (by Go name, then json tag) or
// a map with string keys. Missing fields give "".
func extractValue(item reflect.Value, fieldName string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}

	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(fieldName); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
		t := item.Type()
		for i := 0; i < t.NumField(); i++ {
			tag := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
			if tag == fieldName && t.Field(i).IsExported() {
				return item.Field(i).Interface()
			}
		}
	case reflect.Map:
		if item.Type().Key().Kind() == reflect.String {
			if v := item.MapIndex(reflect.ValueOf(fieldName).Convert(item.Type().Key())); v.IsValid() {
				return v.Interface()
			}
		}
	}
	return ""
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}
	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil && tmpl.Fill.Color != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	return id, nil
}
