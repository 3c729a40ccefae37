// Package drilldown tracks which aggregation level a report displays and the
// branch/product context that scopes it.
package drilldown

import (
	"errors"
	"fmt"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

var (
	// ErrInvalidTransition is returned for a drill action not allowed at the current level
	ErrInvalidTransition = errors.New("invalid drill transition")
	// ErrAtBaseLevel is returned by FoldUp at the base level
	ErrAtBaseLevel = errors.New("already at base level")
)

// New returns the initial state after a generate. An "ALL" branch starts at
// the branch level; a pinned branch starts at the product level with the
// branch already active.
func New(allBranches bool, branch models.Ref) models.DrillState {
	if allBranches {
		return models.DrillState{Level: models.LevelBranch, BaseLevel: models.LevelBranch}
	}
	return models.DrillState{
		Level:        models.LevelProduct,
		BaseLevel:    models.LevelProduct,
		ActiveBranch: &branch,
	}
}

// DrillIntoBranch moves from the branch level to the product level of branch
func DrillIntoBranch(s models.DrillState, branch models.Ref) (models.DrillState, error) {
	if s.Level != models.LevelBranch {
		return s, fmt.Errorf("%w: drill into branch at %s level", ErrInvalidTransition, s.Level)
	}
	s.Level = models.LevelProduct
	s.ActiveBranch = &branch
	s.ActiveProduct = nil
	return s, nil
}

// DrillIntoProduct moves from the product level to the detail rows of product
func DrillIntoProduct(s models.DrillState, product models.Ref) (models.DrillState, error) {
	if s.Level != models.LevelProduct {
		return s, fmt.Errorf("%w: drill into product at %s level", ErrInvalidTransition, s.Level)
	}
	s.Level = models.LevelDetail
	s.ActiveProduct = &product
	return s, nil
}

// FoldUp moves one level toward the base level, clearing the context of the
// level being left
func FoldUp(s models.DrillState) (models.DrillState, error) {
	if !CanFoldUp(s) {
		return s, ErrAtBaseLevel
	}
	switch s.Level {
	case models.LevelDetail:
		s.Level = models.LevelProduct
		s.ActiveProduct = nil
	case models.LevelProduct:
		s.Level = models.LevelBranch
		s.ActiveBranch = nil
	}
	return s, nil
}

// CanFoldUp reports whether the state is above its base level
func CanFoldUp(s models.DrillState) bool {
	return s.Level != s.BaseLevel
}

// Breadcrumbs returns the labels of the active drill context, outermost first
func Breadcrumbs(s models.DrillState) []string {
	var out []string
	if s.ActiveBranch != nil {
		out = append(out, s.ActiveBranch.Label)
	}
	if s.ActiveProduct != nil {
		out = append(out, s.ActiveProduct.Label)
	}
	return out
}
