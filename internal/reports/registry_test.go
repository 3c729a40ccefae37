package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	keys := make([]string, 0)
	for _, d := range r.List() {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"loan-past-due", "loan-past-due-prev-month", "personal-fd", "personal-savings"}, keys)

	d, err := r.Get("personal-fd")
	require.NoError(t, err)
	assert.False(t, d.BranchRequired)
	assert.Equal(t, 10, d.PageSize)
	assert.Equal(t, []string{"Branch", "Accounts", "Total Balance"}, d.BranchColumns())

	_, err = r.Get("customer")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDefinitionsAreSelfConsistent(t *testing.T) {
	for _, d := range Default().List() {
		t.Run(d.Key, func(t *testing.T) {
			fields := d.Source.Fields
			for _, f := range []string{FieldCategory, FieldBranchID, FieldProductID, d.Branch.SortField, d.Product.SortField} {
				assert.Contains(t, fields, f)
			}
			for _, k := range d.RankingKeys {
				assert.Contains(t, fields, k.Field)
			}
			for _, rc := range d.Ranges {
				assert.Contains(t, fields, rc.Field)
				assert.True(t, d.HasRange(rc.Criterion))
			}
			if d.ExactDateField != "" {
				assert.Contains(t, fields, d.ExactDateField)
			}
			if d.DateRangeField != "" {
				assert.Contains(t, fields, d.DateRangeField)
			}
			assert.NotEmpty(t, d.ExportBaseName)
			assert.NotEmpty(t, d.GenerateFailure)
			assert.Positive(t, d.PageSize)
		})
	}
}
