package models

// Operator is the comparison applied by a predicate
type Operator string

const (
	OpEquals       Operator = "equals"
	OpBetween      Operator = "between"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpDateEquals   Operator = "date_equals"
)

// SortDirection is ASC or DESC
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Predicate is a single backend-agnostic filter condition.
// Predicates of one set are always AND-combined.
type Predicate struct {
	Field    string        `json:"field"`
	Operator Operator      `json:"operator"`
	Value    interface{}   `json:"value,omitempty"`
	Values   []interface{} `json:"values,omitempty"` // exactly 2 for between
	// Sorted marks predicates whose field also drives the canonical sort order.
	Sorted bool `json:"sorted,omitempty"`
	// Structural predicates (category) are always present, never user-optional.
	Structural bool `json:"structural,omitempty"`
}

// SortKey represents ordering on one logical field
type SortKey struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// PredicateSet is the compiled form of a filter specification
type PredicateSet struct {
	ReportType string      `json:"report_type"`
	Predicates []Predicate `json:"predicates"`
	OrderBy    []SortKey   `json:"order_by"`
}

// Statement is a parameterized query ready for execution
type Statement struct {
	SQL  string        `json:"sql"`
	Args []interface{} `json:"args"`
}

// QueryResult mirrors the execution service response contract
type QueryResult struct {
	Success  bool        `json:"success"`
	Data     []ReportRow `json:"data"`
	Columns  []string    `json:"columns,omitempty"`
	RowCount int         `json:"row_count"`
	Error    string      `json:"error,omitempty"`
}
