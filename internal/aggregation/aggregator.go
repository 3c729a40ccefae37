// Package aggregation groups a report dataset into branch and product buckets
// and derives the table shown at each drill level.
package aggregation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/numeric"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

// UnknownLabel names a bucket whose rows carry no label
const UnknownLabel = "Unknown"

// Aggregator computes buckets and tables for one report definition
type Aggregator struct {
	def     *reports.Definition
	printer *message.Printer
}

// New creates an aggregator for def
func New(def *reports.Definition) *Aggregator {
	return &Aggregator{
		def:     def,
		printer: message.NewPrinter(language.English),
	}
}

// BranchBuckets groups every row by branch
func (a *Aggregator) BranchBuckets(ds *models.Dataset) []models.AggregateBucket {
	if ds.Len() == 0 {
		return nil
	}
	return a.group(ds.Rows, a.def.Branch)
}

// ProductBuckets groups the rows of branch by product. A nil branch groups
// every row.
func (a *Aggregator) ProductBuckets(ds *models.Dataset, branch *models.Ref) []models.AggregateBucket {
	if ds.Len() == 0 {
		return nil
	}
	return a.group(a.scope(ds.Rows, a.def.Branch, branch), a.def.Product)
}

// DetailRows returns the raw rows inside the active drill context, in
// dataset order
func (a *Aggregator) DetailRows(ds *models.Dataset, branch, product *models.Ref) []models.ReportRow {
	if ds.Len() == 0 {
		return nil
	}
	rows := a.scope(ds.Rows, a.def.Branch, branch)
	return a.scope(rows, a.def.Product, product)
}

// Table derives the displayed table for state
func (a *Aggregator) Table(ds *models.Dataset, state models.DrillState) models.Table {
	if ds.Len() == 0 {
		return models.Table{}
	}

	switch state.Level {
	case models.LevelBranch:
		return a.summary(a.def.BranchColumns(), a.BranchBuckets(ds))
	case models.LevelProduct:
		return a.summary(a.def.ProductColumns(), a.ProductBuckets(ds, state.ActiveBranch))
	}

	rows := a.DetailRows(ds, state.ActiveBranch, state.ActiveProduct)
	table := models.Table{Columns: ds.Columns, Rows: make([]models.TableRow, len(rows))}
	for i, r := range rows {
		table.Rows[i] = models.TableRow{Values: r}
	}
	return table
}

// FormatAmount renders a total with two decimals and thousands separators
func (a *Aggregator) FormatAmount(d decimal.Decimal) string {
	return a.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func (a *Aggregator) summary(columns []string, buckets []models.AggregateBucket) models.Table {
	table := models.Table{
		Columns:   columns,
		Rows:      make([]models.TableRow, len(buckets)),
		IsSummary: true,
	}
	for i, b := range buckets {
		ref := b.Ref()
		table.Rows[i] = models.TableRow{
			Values: models.ReportRow{
				columns[0]: b.Label,
				columns[1]: b.RecordCount,
				columns[2]: a.FormatAmount(b.TotalAmount),
			},
			Drill: &ref,
		}
	}
	return table
}

func (a *Aggregator) group(rows []models.ReportRow, key reports.GroupKey) []models.AggregateBucket {
	index := make(map[string]int)
	var buckets []models.AggregateBucket

	for _, row := range rows {
		id, ok := row.Lookup(key.IDField, camel(key.IDField))
		if !ok {
			continue
		}
		k := models.KeyOf(id)
		i, seen := index[k]
		if !seen {
			label := UnknownLabel
			if l, ok := row.Lookup(key.LabelField, camel(key.LabelField)); ok {
				label = models.KeyOf(l)
			}
			buckets = append(buckets, models.AggregateBucket{ID: id, Label: label, TotalAmount: decimal.Zero})
			i = len(buckets) - 1
			index[k] = i
		}
		amount, _ := row.Lookup(a.def.AmountField, camel(a.def.AmountField))
		buckets[i].RecordCount++
		buckets[i].TotalAmount = buckets[i].TotalAmount.Add(numeric.Decimal(amount))
	}

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(buckets, func(i, j int) bool {
		return col.CompareString(buckets[i].Label, buckets[j].Label) < 0
	})
	return buckets
}

func (a *Aggregator) scope(rows []models.ReportRow, key reports.GroupKey, ref *models.Ref) []models.ReportRow {
	if ref == nil {
		return rows
	}
	want := ref.Key()
	out := make([]models.ReportRow, 0, len(rows))
	for _, row := range rows {
		if id, ok := row.Lookup(key.IDField, camel(key.IDField)); ok && models.KeyOf(id) == want {
			out = append(out, row)
		}
	}
	return out
}

// camel maps snake_case row keys to the camelCase alias some backends emit
func camel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		r := []rune(parts[i])
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "")
}
