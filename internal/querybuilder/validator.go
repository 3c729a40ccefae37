package querybuilder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

var (
	deniedStatements = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|UNION)\b`)
	sqlComments      = regexp.MustCompile(`(?m)--.*$|/\*[\s\S]*?\*/`)
)

// ValidatePredicateSet checks every predicate and sort key against the
// report's field whitelist
func (s *Service) ValidatePredicateSet(def *reports.Definition, ps models.PredicateSet) error {
	if ps.ReportType != "" && ps.ReportType != def.Key {
		return fmt.Errorf("predicate set for %s cannot run as %s", ps.ReportType, def.Key)
	}

	for i, p := range ps.Predicates {
		if _, ok := def.Source.Fields[p.Field]; !ok {
			return fmt.Errorf("predicate %d: field '%s' not available for %s", i, p.Field, def.Key)
		}
		if err := validateOperator(p); err != nil {
			return fmt.Errorf("predicate %d: %w", i, err)
		}
	}

	for i, k := range ps.OrderBy {
		if _, ok := def.Source.Fields[k.Field]; !ok {
			return fmt.Errorf("order by %d: field '%s' not available for %s", i, k.Field, def.Key)
		}
		if k.Direction != models.SortAsc && k.Direction != models.SortDesc {
			return fmt.Errorf("order by %d: invalid direction '%s'", i, k.Direction)
		}
	}

	return nil
}

func validateOperator(p models.Predicate) error {
	switch p.Operator {
	case models.OpEquals, models.OpDateEquals, models.OpGreaterEqual, models.OpLessEqual:
		if p.Value == nil {
			return fmt.Errorf("operator %s requires a value", p.Operator)
		}
	case models.OpBetween:
		if len(p.Values) != 2 {
			return fmt.Errorf("between operator requires exactly 2 values")
		}
	default:
		return fmt.Errorf("unsupported operator: %s", p.Operator)
	}
	return nil
}

// ValidateStatement rejects rendered SQL that is not a single read-only SELECT
func (s *Service) ValidateStatement(stmt models.Statement) error {
	clean := strings.TrimSpace(sqlComments.ReplaceAllString(stmt.SQL, ""))
	if clean == "" {
		return fmt.Errorf("empty query")
	}

	if fields := strings.Fields(clean); strings.ToUpper(fields[0]) != "SELECT" {
		return fmt.Errorf("statement type '%s' not allowed", fields[0])
	}

	if idx := strings.Index(clean, ";"); idx >= 0 && strings.TrimSpace(clean[idx+1:]) != "" {
		return fmt.Errorf("multiple statements not allowed")
	}

	if m := deniedStatements.FindString(clean); m != "" {
		log.Warn().Str("operation", m).Msg("Rejected report statement")
		return fmt.Errorf("statement contains denied operation: %s", strings.ToUpper(m))
	}

	if n := strings.Count(clean, "?"); n != len(stmt.Args) {
		return fmt.Errorf("placeholder count %d does not match %d args", n, len(stmt.Args))
	}

	return nil
}
