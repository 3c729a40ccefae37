package reports

import "github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"

var loanBranch = GroupKey{IDField: "branch_id", LabelField: "branch_name", SortField: FieldBranchID}

// LoanPastDue ranks loan accounts by days past due, then past-due amount
func LoanPastDue() *Definition {
	return &Definition{
		Key:            "loan-past-due",
		Title:          "Loan Past Due Report",
		Category:       CategoryLoan,
		BranchRequired: true,
		PageSize:       20,
		AmountField:    "past_due_amount",
		AmountLabel:    "Total Past Due",
		Branch:         loanBranch,
		Product:        GroupKey{IDField: "product_id", LabelField: "product_name", SortField: FieldProductID},
		Ranking:        RankingPastDue,
		RankingKeys: []models.SortKey{
			{Field: FieldPastDueDays, Direction: models.SortDesc},
			{Field: FieldPastDueAmount, Direction: models.SortDesc},
		},
		RangePolicy: OmitUnrestricted,
		Ranges: []RangeCriterion{
			{Criterion: "installment", Field: FieldPastDueInstalment, Label: "Pastdue Installment"},
			{Criterion: "past_due_days", Field: FieldPastDueDays, Label: "Passdue Days"},
			{Criterion: "capital", Field: FieldCapital, Label: "Capital (Amount)"},
		},
		ExportBaseName:  "loan-past-due-report",
		GenerateFailure: "Failed to fetch loan past-due report",
		Source: Source{
			Select: `gl_branch.id AS branch_id,
  gl_branch.name_ln1 AS branch_name,
  pl_account_type.id AS product_id,
  pl_account.ref_account_number AS account_number,
  ci_customer.customer_number,
  ci_customer.full_name_ln1,
  ci_customer.mobile_1,
  pl_account.past_due_days,
  pl_account.past_due_amount,
  pl_account.capital,
  pl_account.balance,
  pl_account.interest,
  pl_account.capital_installment,
  ROUND(pl_account.past_due_amount / NULLIF(pl_account.capital_installment, 0), 2) AS passdue_installment,
  pl_account_type.name_ln1 AS product_name,
  DATE_FORMAT(pl_account.last_transaction_date, '%Y-%m-%d') AS last_transaction_date,
  DATE_FORMAT(pl_account.open_date, '%Y-%m-%d') AS open_date`,
			From: `ci_customer
  INNER JOIN pl_account ON ci_customer.id = pl_account.ci_customer_id
  INNER JOIN pl_account_type ON pl_account.pl_account_type_id = pl_account_type.id
  INNER JOIN gl_branch ON pl_account.branch_id = gl_branch.id`,
			Fields: map[string]string{
				FieldCategory:          "pl_account_type.pl_account_category_id",
				FieldBranchID:          "gl_branch.id",
				FieldProductID:         "pl_account_type.id",
				FieldProductName:       "pl_account_type.name_ln1",
				FieldPastDueDays:       "pl_account.past_due_days",
				FieldPastDueAmount:     "pl_account.past_due_amount",
				FieldPastDueInstalment: "(pl_account.past_due_amount / NULLIF(pl_account.capital_installment, 0))",
				FieldCapital:           "pl_account.capital",
			},
		},
	}
}

// LoanPastDuePrevMonth ranks loan accounts by last month's closing snapshot
func LoanPastDuePrevMonth() *Definition {
	return &Definition{
		Key:            "loan-past-due-prev-month",
		Title:          "Loan Pastdue - Previous Month",
		Category:       CategoryLoan,
		BranchRequired: true,
		PageSize:       20,
		AmountField:    "passdue_amount",
		AmountLabel:    "Total Past Due",
		Branch:         loanBranch,
		Product:        GroupKey{IDField: "product_id", LabelField: "product_name", SortField: FieldProductID},
		Ranking:        RankingPastDue,
		RankingKeys: []models.SortKey{
			{Field: FieldPastDueDays, Direction: models.SortDesc},
			{Field: FieldPastDueInstalment, Direction: models.SortDesc},
		},
		RangePolicy: OmitUnrestricted,
		Ranges: []RangeCriterion{
			{Criterion: "installment", Field: FieldPastDueInstalment, Label: "Pastdue Installment"},
			{Criterion: "past_due_days", Field: FieldPastDueDays, Label: "Passdue Days"},
			{Criterion: "capital", Field: FieldCapital, Label: "Capital (Amount)"},
		},
		ExportBaseName:  "loan-pastdue-prev-month",
		GenerateFailure: "Failed to fetch loan pastdue for previous month",
		Source: Source{
			Select: `gl_branch.id AS branch_id,
  gl_branch.name_ln1 AS branch_name,
  pl_account_type.id AS product_id,
  pl_account_type.name_ln1 AS product_name,
  pl_account.ref_account_number,
  ci_customer.customer_number,
  ci_customer.full_name_ln1,
  ci_customer.address_ln1,
  ci_customer.mobile_1,
  DATE_FORMAT(pl_account.open_date, '%Y-%m-%d') AS open_date,
  CONCAT(FORMAT(pl_account.interest_rate, 2), '%') AS interest_rate,
  pl_account.period,
  pl_account.capital,
  pl_account.total_installment,
  pl_month_tb.closing_balance,
  pl_month_tb.interest_rate AS month_interest_rate,
  pl_month_tb.passdue_amount,
  pl_month_tb.passdue_installment,
  pl_month_tb.passdue_days`,
			From: `gl_branch
  INNER JOIN pl_account ON gl_branch.id = pl_account.branch_id
  INNER JOIN pl_account_type ON pl_account.pl_account_type_id = pl_account_type.id
  INNER JOIN pl_month_tb ON pl_account.id = pl_month_tb.pl_account_id
  INNER JOIN ci_customer ON gl_branch.id = ci_customer.branch_id
    AND pl_account.ci_customer_id = ci_customer.id`,
			Fields: map[string]string{
				FieldCategory:          "pl_account_type.pl_account_category_id",
				FieldBranchID:          "gl_branch.id",
				FieldProductID:         "pl_account_type.id",
				FieldProductName:       "pl_account_type.name_ln1",
				FieldPastDueDays:       "pl_month_tb.passdue_days",
				FieldPastDueInstalment: "pl_month_tb.passdue_installment",
				FieldCapital:           "pl_account.capital",
			},
		},
	}
}

// PersonalFD lists fixed deposit accounts, newest first
func PersonalFD() *Definition {
	return &Definition{
		Key:             "personal-fd",
		Title:           "Personal FD Report",
		Category:        CategoryDeposit,
		BranchRequired:  false,
		PageSize:        10,
		AmountField:     "pl_account_balance",
		AmountLabel:     "Total Balance",
		Branch:          loanBranch,
		Product:         GroupKey{IDField: "product_name", LabelField: "product_name", SortField: FieldProductName},
		Ranking:         RankingListing,
		RankingKeys:     []models.SortKey{{Field: FieldOpenDate, Direction: models.SortDesc}},
		RangePolicy:     OmitUnrestricted,
		ExactDateField:  FieldLastTransaction,
		DateRangeField:  FieldOpenDate,
		ExportBaseName:  "personal-fd-report",
		GenerateFailure: "Failed to fetch Personal FD report",
		Source: Source{
			Select: `gl_branch.id AS branch_id,
  gl_branch.name_ln1 AS branch_name,
  pl_account.ref_account_number,
  ci_customer.customer_number,
  ci_customer.full_name_ln1,
  pl_account_type.name_ln1 AS product_name,
  DATE_FORMAT(pl_account.open_date, '%Y-%m-%d') AS open_date,
  DATE_FORMAT(pl_account.last_transaction_date, '%Y-%m-%d') AS last_transaction_date,
  CONCAT(FORMAT(pl_account.interest_rate, 2), '%') AS interest_rate,
  FORMAT(pl_daily_balances.pl_account_balance, 2) AS pl_account_balance`,
			From: `ci_customer
  INNER JOIN pl_account ON ci_customer.id = pl_account.ci_customer_id
  INNER JOIN pl_daily_balances ON pl_account.id = pl_daily_balances.pl_account_id
  INNER JOIN pl_account_type ON pl_account.pl_account_type_id = pl_account_type.id
  INNER JOIN gl_branch ON ci_customer.branch_id = gl_branch.id AND pl_account.branch_id = gl_branch.id`,
			Fields: map[string]string{
				FieldCategory:        "pl_account_type.pl_account_category_id",
				FieldBranchID:        "gl_branch.id",
				FieldProductID:       "pl_account_type.id",
				FieldProductName:     "pl_account_type.name_ln1",
				FieldOpenDate:        "pl_account.open_date",
				FieldLastTransaction: "DATE(pl_account.last_transaction_date)",
			},
		},
	}
}

// PersonalSavings lists savings accounts, newest first
func PersonalSavings() *Definition {
	return &Definition{
		Key:             "personal-savings",
		Title:           "Personal Savings Report",
		Category:        CategoryDeposit,
		BranchRequired:  true,
		PageSize:        10,
		AmountField:     "account_balance",
		AmountLabel:     "Total Balance",
		Branch:          loanBranch,
		Product:         GroupKey{IDField: "product_name", LabelField: "product_name", SortField: FieldProductName},
		Ranking:         RankingListing,
		RankingKeys:     []models.SortKey{{Field: FieldOpenDate, Direction: models.SortDesc}},
		RangePolicy:     OmitUnrestricted,
		DateRangeField:  FieldOpenDate,
		ExportBaseName:  "personal-savings-report",
		GenerateFailure: "Failed to fetch personal savings report",
		Source: Source{
			Select: `gl_branch.id AS branch_id,
  gl_branch.name_ln1 AS branch_name,
  pl_account.ref_account_number AS account_number,
  ci_customer.customer_number,
  ci_customer.full_name_ln1,
  pl_account_type.name_ln1 AS product_name,
  DATE_FORMAT(pl_account.open_date, '%Y-%m-%d') AS open_date,
  CONCAT(FORMAT(pl_account.interest_rate, 2), '%') AS interest_rate,
  FORMAT(pl_daily_balances.pl_account_balance, 2) AS account_balance`,
			From: `ci_customer
  INNER JOIN pl_account ON ci_customer.id = pl_account.ci_customer_id
  INNER JOIN pl_daily_balances ON pl_account.id = pl_daily_balances.pl_account_id
  INNER JOIN pl_account_type ON pl_account.pl_account_type_id = pl_account_type.id
  INNER JOIN gl_branch ON pl_account.branch_id = gl_branch.id`,
			Fields: map[string]string{
				FieldCategory:    "pl_account_type.pl_account_category_id",
				FieldBranchID:    "gl_branch.id",
				FieldProductID:   "pl_account_type.id",
				FieldProductName: "pl_account_type.name_ln1",
				FieldOpenDate:    "pl_account.open_date",
			},
		},
	}
}
