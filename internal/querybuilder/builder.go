package querybuilder

import (
	"fmt"
	"strings"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/filter"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

// Service compiles filter specifications into predicates and renders them
// as parameterized SQL
type Service struct{}

// NewService creates a new query builder service
func NewService() *Service {
	return &Service{}
}

// Compile converts a filter specification into an ordered predicate list plus
// the canonical sort order. It is a pure function of its inputs.
func (s *Service) Compile(def *reports.Definition, spec *filter.Specification) models.PredicateSet {
	ps := models.PredicateSet{ReportType: def.Key}

	// Category is structural, never user-optional
	ps.Predicates = append(ps.Predicates, models.Predicate{
		Field:      reports.FieldCategory,
		Operator:   models.OpEquals,
		Value:      def.Category,
		Structural: true,
	})

	if !spec.AllBranches() {
		ps.Predicates = append(ps.Predicates, models.Predicate{
			Field:    reports.FieldBranchID,
			Operator: models.OpEquals,
			Value:    spec.BranchID,
		})
	}

	if spec.HasProduct() {
		ps.Predicates = append(ps.Predicates, models.Predicate{
			Field:    reports.FieldProductID,
			Operator: models.OpEquals,
			Value:    spec.ProductID,
		})
	}

	ps.Predicates = append(ps.Predicates, s.rangePredicates(def, spec)...)
	ps.Predicates = append(ps.Predicates, s.datePredicates(def, spec)...)

	ps.OrderBy = s.sortOrder(def, spec)
	sorted := make(map[string]bool, len(ps.OrderBy))
	for _, k := range ps.OrderBy {
		sorted[k.Field] = true
	}
	for i := range ps.Predicates {
		ps.Predicates[i].Sorted = sorted[ps.Predicates[i].Field]
	}

	return ps
}

// rangePredicates applies the report's range policy
func (s *Service) rangePredicates(def *reports.Definition, spec *filter.Specification) []models.Predicate {
	var out []models.Predicate
	for _, rc := range def.Ranges {
		r := spec.Range(rc.Criterion)
		if def.RangePolicy == reports.OmitUnrestricted && r.Unrestricted() {
			continue
		}
		out = append(out, models.Predicate{
			Field:    rc.Field,
			Operator: models.OpBetween,
			Values:   []interface{}{r.From, r.To},
		})
	}
	return out
}

func (s *Service) datePredicates(def *reports.Definition, spec *filter.Specification) []models.Predicate {
	var out []models.Predicate

	if def.ExactDateField != "" && spec.ExactDate != "" {
		out = append(out, models.Predicate{
			Field:    def.ExactDateField,
			Operator: models.OpDateEquals,
			Value:    spec.ExactDate,
		})
	}

	if def.DateRangeField == "" {
		return out
	}
	switch {
	case spec.DateFrom != "" && spec.DateTo != "":
		out = append(out, models.Predicate{
			Field:    def.DateRangeField,
			Operator: models.OpBetween,
			Values:   []interface{}{spec.DateFrom, spec.DateTo},
		})
	case spec.DateFrom != "":
		out = append(out, models.Predicate{
			Field:    def.DateRangeField,
			Operator: models.OpGreaterEqual,
			Value:    spec.DateFrom,
		})
	case spec.DateTo != "":
		out = append(out, models.Predicate{
			Field:    def.DateRangeField,
			Operator: models.OpLessEqual,
			Value:    spec.DateTo,
		})
	}
	return out
}

// sortOrder picks the branch key for a pure "ALL" generate, otherwise the
// grouping key of the next level down, followed by the report's ranking keys
func (s *Service) sortOrder(def *reports.Definition, spec *filter.Specification) []models.SortKey {
	narrowed := !spec.AllBranches() || spec.HasProduct()

	lead := models.SortKey{Field: def.Branch.SortField, Direction: models.SortAsc}
	if narrowed {
		lead = models.SortKey{Field: def.Product.SortField, Direction: models.SortAsc}
	}

	keys := []models.SortKey{lead}
	for _, k := range def.RankingKeys {
		if k.Field != lead.Field {
			keys = append(keys, k)
		}
	}
	return keys
}

// GenerateSQL renders a compiled predicate set into a parameterized statement.
// Values are never interpolated into the SQL text.
func (s *Service) GenerateSQL(def *reports.Definition, ps models.PredicateSet) (models.Statement, error) {
	if err := s.ValidatePredicateSet(def, ps); err != nil {
		return models.Statement{}, err
	}

	var parts []string
	var args []interface{}

	parts = append(parts, "SELECT\n  "+def.Source.Select)
	parts = append(parts, "FROM\n  "+def.Source.From)

	if len(ps.Predicates) > 0 {
		conditions := make([]string, 0, len(ps.Predicates))
		for _, p := range ps.Predicates {
			cond, condArgs, err := s.buildFilterCondition(def, p)
			if err != nil {
				return models.Statement{}, err
			}
			conditions = append(conditions, cond)
			args = append(args, condArgs...)
		}
		parts = append(parts, "WHERE\n  "+strings.Join(conditions, "\n  AND "))
	}

	if len(ps.OrderBy) > 0 {
		parts = append(parts, "ORDER BY "+s.buildOrderByClause(def, ps.OrderBy))
	}

	return models.Statement{SQL: strings.Join(parts, "\n"), Args: args}, nil
}

// buildFilterCondition builds a single placeholder condition
func (s *Service) buildFilterCondition(def *reports.Definition, p models.Predicate) (string, []interface{}, error) {
	column := def.Source.Fields[p.Field]

	switch p.Operator {
	case models.OpEquals, models.OpDateEquals:
		return fmt.Sprintf("%s = ?", column), []interface{}{p.Value}, nil
	case models.OpGreaterEqual:
		return fmt.Sprintf("%s >= ?", column), []interface{}{p.Value}, nil
	case models.OpLessEqual:
		return fmt.Sprintf("%s <= ?", column), []interface{}{p.Value}, nil
	case models.OpBetween:
		if len(p.Values) != 2 {
			return "", nil, fmt.Errorf("between operator requires exactly 2 values")
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", column), []interface{}{p.Values[0], p.Values[1]}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator: %s", p.Operator)
	}
}

// buildOrderByClause builds ORDER BY clause
func (s *Service) buildOrderByClause(def *reports.Definition, orderBy []models.SortKey) string {
	var parts []string
	for _, order := range orderBy {
		parts = append(parts, fmt.Sprintf("%s %s", def.Source.Fields[order.Field], order.Direction))
	}
	return strings.Join(parts, ", ")
}
