// Package filter builds the typed filter specification of one report
// generation from raw form values.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/numeric"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

// AllBranches is the branch sentinel meaning "no branch filter"
const AllBranches int64 = 0

const dateLayout = "2006-01-02"

// ValidationError blocks report generation; no request is issued
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Form carries raw form values as submitted by the client
type Form struct {
	BranchID            string            `json:"branch_id"`
	BranchName          string            `json:"branch_name,omitempty"`
	ProductID           string            `json:"product_id"`
	ProductName         string            `json:"product_name,omitempty"`
	Ranges              map[string]string `json:"ranges,omitempty"` // "<criterion>_from" / "<criterion>_to"
	LastTransactionDate string            `json:"last_transaction_date,omitempty"`
	OpenFrom            string            `json:"open_from,omitempty"`
	OpenTo              string            `json:"open_to,omitempty"`
}

// Range is a numeric range criterion. Blank bounds default to [0, sentinel].
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Unrestricted reports whether both bounds are at their defaults
func (r Range) Unrestricted() bool {
	return r.From <= 0 && r.To >= reports.RangeSentinel
}

// DefaultRange is the range of a criterion left blank
func DefaultRange() Range {
	return Range{From: 0, To: reports.RangeSentinel}
}

// Specification is the immutable filter bag of one generate action
type Specification struct {
	ReportType string `json:"report_type"`
	// BranchID is AllBranches when every branch is requested
	BranchID    int64  `json:"branch_id"`
	BranchLabel string `json:"branch_label"`
	// ProductID is zero when no product is selected
	ProductID    int64            `json:"product_id,omitempty"`
	ProductLabel string           `json:"product_label,omitempty"`
	Ranges       map[string]Range `json:"ranges,omitempty"`
	ExactDate    string           `json:"exact_date,omitempty"`
	DateFrom     string           `json:"date_from,omitempty"`
	DateTo       string           `json:"date_to,omitempty"`
}

// AllBranches reports whether the branch criterion is the sentinel
func (s *Specification) AllBranches() bool {
	return s.BranchID == AllBranches
}

// HasProduct reports whether a product narrows the report
func (s *Specification) HasProduct() bool {
	return s.ProductID != 0
}

// Range returns the range for criterion, defaulted when absent
func (s *Specification) Range(criterion string) Range {
	if r, ok := s.Ranges[criterion]; ok {
		return r
	}
	return DefaultRange()
}

// DateRangeText is the printable date range summary
func (s *Specification) DateRangeText() string {
	switch {
	case s.DateFrom != "" && s.DateTo != "":
		return fmt.Sprintf("%s to %s", s.DateFrom, s.DateTo)
	case s.DateFrom != "":
		return "From " + s.DateFrom
	case s.DateTo != "":
		return "To " + s.DateTo
	}
	return ""
}

// Parse validates form against the report definition and returns the
// specification to compile
func Parse(def *reports.Definition, form Form) (*Specification, error) {
	spec := &Specification{
		ReportType:   def.Key,
		BranchLabel:  strings.TrimSpace(form.BranchName),
		ProductLabel: strings.TrimSpace(form.ProductName),
		Ranges:       make(map[string]Range),
	}

	branch := strings.TrimSpace(form.BranchID)
	switch {
	case branch == "" && def.BranchRequired:
		return nil, &ValidationError{Field: "branch_id", Message: "Please select a Branch Name"}
	case branch == "":
		spec.BranchID = AllBranches
	default:
		id, err := strconv.ParseInt(branch, 10, 64)
		if err != nil || id < 0 {
			return nil, &ValidationError{Field: "branch_id", Message: fmt.Sprintf("invalid branch id: %q", branch)}
		}
		spec.BranchID = id
	}
	if spec.AllBranches() {
		spec.BranchLabel = allBranchesLabel(def)
	}

	if product := strings.TrimSpace(form.ProductID); product != "" {
		id, err := strconv.ParseInt(product, 10, 64)
		if err != nil || id < 0 {
			return nil, &ValidationError{Field: "product_id", Message: fmt.Sprintf("invalid product id: %q", product)}
		}
		spec.ProductID = id
	}
	if !spec.HasProduct() {
		spec.ProductLabel = ""
	}

	for _, rc := range def.Ranges {
		r := DefaultRange()
		if v := strings.TrimSpace(form.Ranges[rc.Criterion+"_from"]); v != "" {
			r.From = numeric.Normalize(v)
		}
		if v := strings.TrimSpace(form.Ranges[rc.Criterion+"_to"]); v != "" {
			r.To = numeric.Normalize(v)
		}
		spec.Ranges[rc.Criterion] = r
	}

	if def.ExactDateField != "" {
		d, err := parseDate("last_transaction_date", form.LastTransactionDate)
		if err != nil {
			return nil, err
		}
		spec.ExactDate = d
	}
	if def.DateRangeField != "" {
		from, err := parseDate("open_from", form.OpenFrom)
		if err != nil {
			return nil, err
		}
		to, err := parseDate("open_to", form.OpenTo)
		if err != nil {
			return nil, err
		}
		spec.DateFrom, spec.DateTo = from, to
	}

	return spec, nil
}

func allBranchesLabel(def *reports.Definition) string {
	if def.BranchRequired {
		return "ALL"
	}
	return "All Branches"
}

func parseDate(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value)}
	}
	return t.Format(dateLayout), nil
}
