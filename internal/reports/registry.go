// Package reports holds the per-report-type configuration that parametrizes
// the drill-down engine: category filter, grouping keys, ranking metric,
// sort policy, page size and the backend field mapping.
package reports

import (
	"errors"
	"fmt"
	"sort"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

// Logical field names used by predicates and sort keys
const (
	FieldCategory          = "category_id"
	FieldBranchID          = "branch_id"
	FieldBranchName        = "branch_name"
	FieldProductID         = "product_id"
	FieldProductName       = "product_name"
	FieldPastDueDays       = "past_due_days"
	FieldPastDueAmount     = "past_due_amount"
	FieldPastDueInstalment = "past_due_installment"
	FieldCapital           = "capital"
	FieldOpenDate          = "open_date"
	FieldLastTransaction   = "last_transaction_date"
)

// Account categories of pl_account_type
const (
	CategoryDeposit int64 = 1
	CategoryLoan    int64 = 2
)

// ErrUnknownType is returned for a report type key with no definition
var ErrUnknownType = errors.New("unknown report type")

// RangeSentinel is the upper bound assumed for a blank range "to" field
const RangeSentinel = 1000000000

// RangePolicy decides whether unrestricted ranges are compiled
type RangePolicy int

const (
	// OmitUnrestricted drops a range predicate when both bounds are defaults
	OmitUnrestricted RangePolicy = iota
	// AlwaysEmit compiles BETWEEN from AND to even at default bounds
	AlwaysEmit
)

// Ranking selects the secondary ordering of a report
type Ranking string

const (
	RankingPastDue Ranking = "past_due"
	RankingListing Ranking = "listing"
)

// GroupKey names the row fields holding a group's id and label
type GroupKey struct {
	IDField    string
	LabelField string
	// SortField is the logical field used when this key drives the sort order
	SortField string
}

// RangeCriterion binds a form range criterion to a logical field
type RangeCriterion struct {
	Criterion string
	Field     string
	Label     string
}

// Source is the backend-specific query shape of a report
type Source struct {
	Select string
	From   string
	// Fields maps logical fields to column expressions. Predicates on fields
	// outside this map are rejected before rendering.
	Fields map[string]string
}

// Definition parametrizes the engine for one report type
type Definition struct {
	Key             string
	Title           string
	Category        int64
	BranchRequired  bool
	PageSize        int
	AmountField     string
	AmountLabel     string
	Branch          GroupKey
	Product         GroupKey
	Ranking         Ranking
	RankingKeys     []models.SortKey
	RangePolicy     RangePolicy
	Ranges          []RangeCriterion
	ExactDateField  string
	DateRangeField  string
	ExportBaseName  string
	GenerateFailure string
	Source          Source
}

// BranchColumns are the display columns of the branch summary level
func (d *Definition) BranchColumns() []string {
	return []string{"Branch", "Accounts", d.AmountLabel}
}

// ProductColumns are the display columns of the product summary level
func (d *Definition) ProductColumns() []string {
	return []string{"Product", "Accounts", d.AmountLabel}
}

// HasRange reports whether the report accepts the named range criterion
func (d *Definition) HasRange(criterion string) bool {
	for _, r := range d.Ranges {
		if r.Criterion == criterion {
			return true
		}
	}
	return false
}

// Registry maps report type keys to definitions
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates a registry holding defs
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Key] = d
	}
	return r
}

// Default returns the registry of the built-in report types
func Default() *Registry {
	return NewRegistry(LoanPastDue(), LoanPastDuePrevMonth(), PersonalFD(), PersonalSavings())
}

// Get returns the definition for key
func (r *Registry) Get(key string) (*Definition, error) {
	d, ok := r.defs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, key)
	}
	return d, nil
}

// List returns all definitions ordered by key
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
