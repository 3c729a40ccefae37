package models

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ReportRow is one record of a report dataset. Its shape is defined by the
// backend response, not by a fixed type.
type ReportRow map[string]interface{}

// Lookup returns the first non-nil value among keys
func (r ReportRow) Lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Dataset is the flat collection of rows returned for one generated report.
// It is never mutated after construction.
type Dataset struct {
	Columns []string    `json:"columns"`
	Rows    []ReportRow `json:"rows"`
}

// NewDataset builds a dataset. When columns is empty the column set is
// inferred from the first row, sorted by name.
func NewDataset(columns []string, rows []ReportRow) *Dataset {
	if len(columns) == 0 && len(rows) > 0 {
		columns = make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the row count, tolerating a nil dataset
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Ref identifies a branch or product selected by a drill action
type Ref struct {
	ID    interface{} `json:"id"`
	Label string      `json:"label"`
}

// Key returns a comparable representation of the id
func (r Ref) Key() string {
	return KeyOf(r.ID)
}

// KeyOf normalizes ids so 7, int64(7), "7" and 7.0 compare equal
func KeyOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case float32:
		return KeyOf(float64(t))
	default:
		return fmt.Sprint(t)
	}
}

// AggregateBucket is one aggregated group within a drill scope
type AggregateBucket struct {
	ID          interface{}     `json:"id"`
	Label       string          `json:"label"`
	RecordCount int             `json:"record_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Ref returns the drill reference for the bucket
func (b AggregateBucket) Ref() Ref {
	return Ref{ID: b.ID, Label: b.Label}
}

// DrillLevel is the aggregation granularity currently displayed
type DrillLevel string

const (
	LevelBranch  DrillLevel = "branch"
	LevelProduct DrillLevel = "product"
	LevelDetail  DrillLevel = "detail"
)

// DrillState tracks the displayed level and active drill context
type DrillState struct {
	Level         DrillLevel `json:"level"`
	BaseLevel     DrillLevel `json:"base_level"`
	ActiveBranch  *Ref       `json:"active_branch,omitempty"`
	ActiveProduct *Ref       `json:"active_product,omitempty"`
}

// PageWindow describes the current page and the visible page numbers
type PageWindow struct {
	CurrentPage        int   `json:"current_page"`
	TotalPages         int   `json:"total_pages"`
	PageSize           int   `json:"page_size"`
	TotalRows          int   `json:"total_rows"`
	VisiblePageNumbers []int `json:"visible_page_numbers"`
}

// TableRow is a rendered row; summary rows carry the drill target
type TableRow struct {
	Values ReportRow `json:"values"`
	Drill  *Ref      `json:"drill,omitempty"`
}

// Table is the row set of one drill level together with its columns
type Table struct {
	Columns   []string   `json:"columns"`
	Rows      []TableRow `json:"rows"`
	IsSummary bool       `json:"is_summary"`
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Branch is a lookup entry for the branch dropdown
type Branch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a lookup entry for the product dropdown
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Institute carries the institute display name
type Institute struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Lookups is the dropdown data needed before a report can be generated
type Lookups struct {
	Branches  []Branch   `json:"branches"`
	Products  []Product  `json:"products"`
	Institute *Institute `json:"institute,omitempty"`
}
