package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
)

func loanDataset() *models.Dataset {
	return models.NewDataset(
		[]string{"branch_id", "branch_name", "product_id", "product_name", "past_due_amount"},
		[]models.ReportRow{
			{"branch_id": int64(2), "branch_name": "Kandy", "product_id": int64(10), "product_name": "Gold Loan", "past_due_amount": "1,000.50"},
			{"branch_id": int64(1), "branch_name": "Colombo", "product_id": int64(11), "product_name": "Leasing", "past_due_amount": 200.0},
			{"branch_id": int64(2), "branch_name": "Kandy", "product_id": int64(11), "product_name": "Leasing", "past_due_amount": "abc"},
			{"branch_id": int64(1), "branch_name": "Colombo", "product_id": int64(10), "product_name": "Gold Loan", "past_due_amount": 0.1},
			{"branch_id": int64(1), "branch_name": "Colombo", "product_id": int64(10), "product_name": "Gold Loan", "past_due_amount": 0.2},
			{"branch_name": "Orphan", "product_id": int64(10), "past_due_amount": 99},
		},
	)
}

func TestBranchBuckets(t *testing.T) {
	buckets := New(reports.LoanPastDue()).BranchBuckets(loanDataset())

	require.Len(t, buckets, 2)
	assert.Equal(t, "Colombo", buckets[0].Label)
	assert.Equal(t, 3, buckets[0].RecordCount)
	assert.True(t, decimal.RequireFromString("200.3").Equal(buckets[0].TotalAmount))

	assert.Equal(t, "Kandy", buckets[1].Label)
	assert.Equal(t, 2, buckets[1].RecordCount)
	assert.True(t, decimal.RequireFromString("1000.5").Equal(buckets[1].TotalAmount))
}

func TestBranchBuckets_CountsSumToGroupedRows(t *testing.T) {
	ds := loanDataset()
	var total int
	for _, b := range New(reports.LoanPastDue()).BranchBuckets(ds) {
		total += b.RecordCount
	}
	// the orphan row has no branch id
	assert.Equal(t, ds.Len()-1, total)
}

func TestProductBuckets_ScopedToBranch(t *testing.T) {
	agg := New(reports.LoanPastDue())
	ds := loanDataset()

	buckets := agg.ProductBuckets(ds, &models.Ref{ID: float64(2), Label: "Kandy"})
	require.Len(t, buckets, 2)
	assert.Equal(t, "Gold Loan", buckets[0].Label)
	assert.Equal(t, 1, buckets[0].RecordCount)
	assert.Equal(t, "Leasing", buckets[1].Label)
	assert.True(t, buckets[1].TotalAmount.IsZero())

	all := agg.ProductBuckets(ds, nil)
	require.Len(t, all, 2)
	assert.Equal(t, 4, all[0].RecordCount)
}

func TestProductBuckets_CaseInsensitiveOrder(t *testing.T) {
	ds := models.NewDataset(nil, []models.ReportRow{
		{"product_id": 1, "product_name": "beta"},
		{"product_id": 2, "product_name": "Alpha"},
		{"product_id": 3, "product_name": "gamma"},
		{"product_id": 4},
	})

	buckets := New(reports.LoanPastDue()).ProductBuckets(ds, nil)
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	assert.Equal(t, []string{"Alpha", "beta", "gamma", UnknownLabel}, labels)
}

func TestDetailRows(t *testing.T) {
	agg := New(reports.LoanPastDue())
	ds := loanDataset()

	rows := agg.DetailRows(ds, &models.Ref{ID: int64(1)}, &models.Ref{ID: "10"})
	require.Len(t, rows, 2)
	assert.Equal(t, 0.1, rows[0]["past_due_amount"])
	assert.Equal(t, 0.2, rows[1]["past_due_amount"])

	assert.Len(t, agg.DetailRows(ds, nil, nil), ds.Len())
}

func TestTable(t *testing.T) {
	agg := New(reports.LoanPastDue())
	ds := loanDataset()

	branch := agg.Table(ds, models.DrillState{Level: models.LevelBranch})
	assert.True(t, branch.IsSummary)
	assert.Equal(t, []string{"Branch", "Accounts", "Total Past Due"}, branch.Columns)
	require.Equal(t, 2, branch.Len())
	assert.Equal(t, "1,000.50", branch.Rows[1].Values["Total Past Due"])
	assert.Equal(t, "Kandy", branch.Rows[1].Drill.Label)

	kandy := *branch.Rows[1].Drill
	product := agg.Table(ds, models.DrillState{Level: models.LevelProduct, ActiveBranch: &kandy})
	assert.Equal(t, []string{"Product", "Accounts", "Total Past Due"}, product.Columns)
	assert.Equal(t, 2, product.Len())

	detail := agg.Table(ds, models.DrillState{Level: models.LevelDetail, ActiveBranch: &kandy})
	assert.False(t, detail.IsSummary)
	assert.Equal(t, ds.Columns, detail.Columns)
	assert.Equal(t, 2, detail.Len())
	assert.Nil(t, detail.Rows[0].Drill)
}

func TestTable_EmptyDataset(t *testing.T) {
	table := New(reports.PersonalFD()).Table(models.NewDataset(nil, nil), models.DrillState{Level: models.LevelBranch})
	assert.Equal(t, 0, table.Len())
	assert.False(t, table.IsSummary)
}

func TestFormatAmount(t *testing.T) {
	agg := New(reports.PersonalSavings())
	assert.Equal(t, "1,234,567.89", agg.FormatAmount(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "0.00", agg.FormatAmount(decimal.Zero))
}

func TestCamelAlias(t *testing.T) {
	assert.Equal(t, "pastDueAmount", camel("past_due_amount"))
	ds := models.NewDataset(nil, []models.ReportRow{
		{"branchId": 5, "branchName": "Galle", "pastDueAmount": "10"},
	})
	buckets := New(reports.LoanPastDue()).BranchBuckets(ds)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Galle", buckets[0].Label)
	assert.True(t, decimal.NewFromInt(10).Equal(buckets[0].TotalAmount))
}

func TestBranchBuckets_OverflowAmountCountsAsZero(t *testing.T) {
	ds := models.NewDataset(nil, []models.ReportRow{
		{"branch_id": int64(1), "branch_name": "Colombo", "past_due_amount": "1e400"},
		{"branch_id": int64(1), "branch_name": "Colombo", "past_due_amount": "12.50"},
	})
	buckets := New(reports.LoanPastDue()).BranchBuckets(ds)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].RecordCount)
	assert.True(t, decimal.RequireFromString("12.5").Equal(buckets[0].TotalAmount))
}
