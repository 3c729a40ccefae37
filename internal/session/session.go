// Package session holds the explicit state of one report screen: the filter
// specification, the generated dataset, the drill state and the page.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/aggregation"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/drilldown"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/filter"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/pagination"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/querybuilder"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

var (
	// ErrGenerateInFlight rejects a generate while another one is outstanding
	ErrGenerateInFlight = errors.New("a report request is already in progress")
	// ErrSuperseded is returned when a response arrives after the session moved on
	ErrSuperseded = errors.New("report response superseded")
	// ErrUnknownBucket is returned when a drill target is not in the current table
	ErrUnknownBucket = errors.New("no such row at this level")
)

// GenerationError carries the message shown when the backend call fails
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SelectedBranchLabel names a pinned branch whose display name is unknown
const SelectedBranchLabel = "Selected Branch"

// Executor runs a compiled report statement
type Executor interface {
	ExecuteReport(ctx context.Context, stmt models.Statement) (*models.QueryResult, error)
}

// Status summarizes the result area of a session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// View is what the report screen shows for the current state
type View struct {
	SessionID   string                `json:"session_id"`
	ReportType  string                `json:"report_type"`
	Title       string                `json:"title"`
	Status      Status                `json:"status"`
	Error       string                `json:"error,omitempty"`
	Filters     *filter.Specification `json:"filters,omitempty"`
	FilterText  string                `json:"filter_text,omitempty"`
	Drill       models.DrillState     `json:"drill"`
	Breadcrumbs []string              `json:"breadcrumbs"`
	CanFoldUp   bool                  `json:"can_fold_up"`
	Columns     []string              `json:"columns"`
	IsSummary   bool                  `json:"is_summary"`
	Rows        []models.TableRow     `json:"rows"`
	Page        models.PageWindow     `json:"page"`
}

// Session is one report screen's state. All methods are safe for concurrent use.
type Session struct {
	ID  string
	def *reports.Definition

	compiler  *querybuilder.Service
	executor  Executor
	agg       *aggregation.Aggregator
	paginator *pagination.Paginator

	mu        sync.Mutex
	spec      *filter.Specification
	dataset   *models.Dataset
	state     models.DrillState
	table     models.Table
	page      int
	status    Status
	errMsg    string
	inFlight  bool
	seq       uint64
	institute string
}

// New creates an idle session for def
func New(id string, def *reports.Definition, executor Executor) *Session {
	return &Session{
		ID:        id,
		def:       def,
		compiler:  querybuilder.NewService(),
		executor:  executor,
		agg:       aggregation.New(def),
		paginator: pagination.NewPaginator(def.PageSize, def.PageSize),
		page:      1,
		status:    StatusIdle,
	}
}

// Definition returns the report type of the session
func (s *Session) Definition() *reports.Definition {
	return s.def
}

// SetInstitute sets the institute name shown on printouts
func (s *Session) SetInstitute(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institute = name
}

// Generate validates form, runs the report and installs the new dataset.
// The previous results are cleared before the request is issued; filters are
// kept on failure.
func (s *Session) Generate(ctx context.Context, form filter.Form) error {
	spec, err := filter.Parse(s.def, form)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrGenerateInFlight
	}
	s.seq++
	token := s.seq
	s.inFlight = true
	s.spec = spec
	s.clearResults()
	s.status = StatusLoading
	s.mu.Unlock()

	result, execErr := s.execute(ctx, spec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		log.Debug().Str("session", s.ID).Uint64("token", token).Msg("Discarding stale report response")
		return ErrSuperseded
	}
	s.inFlight = false

	if execErr == nil && (result == nil || !result.Success) {
		execErr = errors.New("report query unsuccessful")
	}
	if execErr != nil {
		msg := s.def.GenerateFailure
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		s.status = StatusError
		s.errMsg = msg
		log.Error().Err(execErr).Str("session", s.ID).Str("report", s.def.Key).Msg("Report generation failed")
		return &GenerationError{Message: msg, Err: execErr}
	}

	s.dataset = models.NewDataset(result.Columns, result.Data)
	if !spec.AllBranches() && spec.BranchLabel == "" {
		spec.BranchLabel = s.pinnedBranchLabel(spec.BranchID)
	}
	s.state = drilldown.New(spec.AllBranches(), models.Ref{ID: spec.BranchID, Label: spec.BranchLabel})
	s.page = 1
	s.refreshTable()
	if s.dataset.Len() == 0 {
		s.status = StatusEmpty
	} else {
		s.status = StatusReady
	}

	log.Info().
		Str("session", s.ID).
		Str("report", s.def.Key).
		Int("rows", s.dataset.Len()).
		Str("drill_level", string(s.state.Level)).
		Msg("Report generated")
	return nil
}

// pinnedBranchLabel names a branch submitted without its display name, using
// the first matching row of the dataset
func (s *Session) pinnedBranchLabel(id int64) string {
	key := s.def.Branch
	want := models.KeyOf(id)
	for _, row := range s.dataset.Rows {
		if v, ok := row.Lookup(key.IDField); !ok || models.KeyOf(v) != want {
			continue
		}
		if l, ok := row.Lookup(key.LabelField); ok {
			if label := strings.TrimSpace(models.KeyOf(l)); label != "" {
				return label
			}
		}
	}
	return SelectedBranchLabel
}

func (s *Session) execute(ctx context.Context, spec *filter.Specification) (*models.QueryResult, error) {
	stmt, err := s.compiler.GenerateSQL(s.def, s.compiler.Compile(s.def, spec))
	if err != nil {
		return nil, fmt.Errorf("render report query: %w", err)
	}
	if err := s.compiler.ValidateStatement(stmt); err != nil {
		return nil, fmt.Errorf("validate report query: %w", err)
	}
	return s.executor.ExecuteReport(ctx, stmt)
}

// Reset drops filters and results. A generate still outstanding is discarded
// when its response arrives.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.inFlight = false
	s.spec = nil
	s.clearResults()
	s.status = StatusIdle
}

func (s *Session) clearResults() {
	s.dataset = nil
	s.table = models.Table{}
	s.state = models.DrillState{}
	s.page = 1
	s.errMsg = ""
}

func (s *Session) refreshTable() {
	s.table = s.agg.Table(s.dataset, s.state)
}

// Drill moves one level in at the row identified by id
func (s *Session) Drill(id interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Level {
	case models.LevelBranch:
		return s.drillBranch(id)
	case models.LevelProduct:
		return s.drillProduct(id)
	}
	return fmt.Errorf("%w: no level below %q", drilldown.ErrInvalidTransition, s.state.Level)
}

// DrillIntoBranch opens the product summary of branch id
func (s *Session) DrillIntoBranch(id interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drillBranch(id)
}

// DrillIntoProduct opens the detail rows of product id
func (s *Session) DrillIntoProduct(id interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drillProduct(id)
}

func (s *Session) drillBranch(id interface{}) error {
	if s.state.Level != models.LevelBranch {
		return fmt.Errorf("%w: drill into branch at %q level", drilldown.ErrInvalidTransition, s.state.Level)
	}
	ref, err := s.findBucket(id)
	if err != nil {
		return err
	}
	next, err := drilldown.DrillIntoBranch(s.state, ref)
	if err != nil {
		return err
	}
	s.transition(next)
	return nil
}

func (s *Session) drillProduct(id interface{}) error {
	if s.state.Level != models.LevelProduct {
		return fmt.Errorf("%w: drill into product at %q level", drilldown.ErrInvalidTransition, s.state.Level)
	}
	ref, err := s.findBucket(id)
	if err != nil {
		return err
	}
	next, err := drilldown.DrillIntoProduct(s.state, ref)
	if err != nil {
		return err
	}
	s.transition(next)
	return nil
}

func (s *Session) findBucket(id interface{}) (models.Ref, error) {
	want := models.KeyOf(id)
	for _, row := range s.table.Rows {
		if row.Drill != nil && row.Drill.Key() == want {
			return *row.Drill, nil
		}
	}
	return models.Ref{}, fmt.Errorf("%w: %s", ErrUnknownBucket, want)
}

// FoldUp returns to the previous aggregation level
func (s *Session) FoldUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := drilldown.FoldUp(s.state)
	if err != nil {
		return err
	}
	s.transition(next)
	return nil
}

func (s *Session) transition(next models.DrillState) {
	s.state = next
	s.page = 1
	s.refreshTable()
}

// SetPage moves to page n, clamped to the available pages
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPage(n)
}

func (s *Session) setPage(n int) {
	w, _, _ := s.paginator.Paginate(s.table.Len(), pagination.PageRequest{Page: n})
	s.page = w.CurrentPage
}

// NextPage advances one page when not on the last page
func (s *Session) NextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPage(s.page + 1)
}

// PrevPage goes back one page when not on the first page
func (s *Session) PrevPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPage(s.page - 1)
}

// View returns the visible slice of the current level with its page window
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, start, end := s.paginator.Paginate(s.table.Len(), pagination.PageRequest{Page: s.page})
	s.page = window.CurrentPage

	v := View{
		SessionID:   s.ID,
		ReportType:  s.def.Key,
		Title:       s.def.Title,
		Status:      s.status,
		Error:       s.errMsg,
		Filters:     s.spec,
		Drill:       s.state,
		Breadcrumbs: drilldown.Breadcrumbs(s.state),
		CanFoldUp:   s.dataset.Len() > 0 && drilldown.CanFoldUp(s.state),
		Columns:     s.table.Columns,
		IsSummary:   s.table.IsSummary,
		Rows:        s.table.Rows[start:end],
		Page:        window,
	}
	if s.spec != nil {
		v.FilterText = s.filterText()
	}
	if v.Columns == nil {
		v.Columns = []string{}
	}
	if v.Rows == nil {
		v.Rows = []models.TableRow{}
	}
	if v.Breadcrumbs == nil {
		v.Breadcrumbs = []string{}
	}
	return v
}

// ActiveTable returns every row of the current level, ignoring pagination
func (s *Session) ActiveTable() models.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// Document returns the active table with the headings used for export and print
func (s *Session) Document() export.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := export.Document{
		Title:     s.def.Title,
		Institute: s.institute,
		BaseName:  s.def.ExportBaseName,
		Table:     s.table,
	}
	if s.spec != nil {
		doc.Filters = s.filterText()
	}
	return doc
}

func (s *Session) filterText() string {
	return export.FilterSummary(s.spec.BranchLabel, s.spec.ProductLabel, s.spec.DateRangeText())
}
