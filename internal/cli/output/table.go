package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// maxCell caps nested values in narrow tables.
const maxCell = 48

// TableFormatter formats data as aligned columns.
//
// An object prints as FIELD/VALUE rows, an array of objects as one row
// per element with the union of keys as columns, and nested values as
// compact JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	if t, ok := data.(*Table); ok {
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	v, err := normalize(data)
	if err != nil {
		return err
	}
	return f.toTable(v).RenderWithOptions(w, f.NoHeaders)
}

func (f *TableFormatter) toTable(v any) *Table {
	switch t := v.(type) {
	case object:
		table := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, m := range t {
			table.AddRow(m.Key, f.cell(m.Value))
		}
		return table
	case []any:
		return f.arrayTable(t)
	default:
		return &Table{Rows: [][]string{{f.cell(v)}}}
	}
}

func (f *TableFormatter) arrayTable(items []any) *Table {
	if len(items) == 0 {
		return &Table{Rows: [][]string{{"(none)"}}}
	}

	var columns []string
	index := make(map[string]int)
	for _, item := range items {
		obj, ok := item.(object)
		if !ok {
			continue
		}
		for _, m := range obj {
			if _, seen := index[m.Key]; !seen {
				index[m.Key] = len(columns)
				columns = append(columns, m.Key)
			}
		}
	}

	if len(columns) == 0 {
		table := &Table{Headers: []string{"VALUE"}}
		for _, item := range items {
			table.AddRow(f.cell(item))
		}
		return table
	}

	table := &Table{}
	for _, c := range columns {
		table.Headers = append(table.Headers, headerName(c))
	}
	for _, item := range items {
		row := make([]string, len(columns))
		for i := range row {
			row[i] = "-"
		}
		if obj, ok := item.(object); ok {
			for _, m := range obj {
				row[index[m.Key]] = f.cell(m.Value)
			}
		} else {
			row[0] = f.cell(item)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (f *TableFormatter) cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case json.Number:
		return t.String()
	case bool:
		return fmt.Sprint(t)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	s := string(b)
	if !f.Wide && len(s) > maxCell {
		s = s[:maxCell-3] + "..."
	}
	return s
}

// headerName turns dealerId or trans_amount into DEALER_ID or TRANS_AMOUNT.
func headerName(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
