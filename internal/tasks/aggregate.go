package tasks

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/oarlock/ferry/pkg/structs"
)

const (
	paramCustomerColumn      = "customer_column"
	paramAccountColumn       = "account_column"
	paramBalanceColumn       = "balance_column"
	paramPaymentsColumn      = "payments_column"
	paramArrearsColumn       = "arrears_column"
	paramOriginalTermColumn  = "original_term_column"
	paramRemainingTermColumn = "remaining_term_column"

	defCustomerColumn      = "TI_CU_CUSTOMER_ID"
	defAccountColumn       = "TI_LN_ACCOUNT_ID"
	defBalanceColumn       = "TI_LN_BALANCE"
	defPaymentsColumn      = "TI_LN_VAL_PAYMENTS"
	defArrearsColumn       = "TI_LN_NUM_MTHS_IN_ARREARS"
	defOriginalTermColumn  = "TI_LN_ORIGINAL_TERM"
	defRemainingTermColumn = "TI_LN_REMAINING_TERM"

	accountAggregationFile = "account_aggregation.csv"
	monthlyBalancesFile    = "monthly_balances.csv"
)

// Aggregate reads loan records from the input mount & writes two summaries to
// the output mount.
//
// account_aggregation.csv: per (customer, account) the mean balance, mean
// minimum payment & total months in arrears.
//
// monthly_balances.csv: per (customer, payment month) the total balance,
// total arrears & number of accounts, where the payment month is the account
// open date shifted forward by the months already elapsed on the term.
//
// Column names are taken from spec parameters (customer_column,
// account_column, balance_column, payments_column, arrears_column,
// original_term_column, remaining_term_column), defaulting to the TI_ loan
// book layout.
func Aggregate(ctx context.Context, spec *structs.JobSpec) ([]string, error) {
	in, err := inputDir(spec)
	if err != nil {
		return nil, err
	}
	out, err := outputDir(spec)
	if err != nil {
		return nil, err
	}

	tab, err := readTables(in)
	if err != nil {
		return nil, err
	}

	cols, err := aggregateColumns(tab, spec)
	if err != nil {
		return nil, err
	}

	accounts, err := accountAggregation(tab, cols)
	if err != nil {
		return nil, err
	}
	monthly, err := monthlyBalances(tab, cols)
	if err != nil {
		return nil, err
	}

	err = writeCSV(filepath.Join(out, accountAggregationFile),
		[]string{cols.customerName, cols.accountName, "AVERAGE_ACCOUNT_BALANCE", "AVERAGE_MIN_PAYMENT", "LATE_PAYMENTS"},
		accounts,
	)
	if err != nil {
		return nil, err
	}
	err = writeCSV(filepath.Join(out, monthlyBalancesFile),
		[]string{cols.customerName, "PAYMENT_DATE", "TOTAL_MONTHLY_BALANCE", "TOTAL_ARREARS", "NUM_ACCOUNTS"},
		monthly,
	)
	if err != nil {
		return nil, err
	}

	return nil, nil
}

type columns struct {
	customerName string
	accountName  string

	customer      int
	account       int
	balance       int
	payments      int
	arrears       int
	date          int
	originalTerm  int
	remainingTerm int
}

func aggregateColumns(tab *table, spec *structs.JobSpec) (*columns, error) {
	cols := &columns{
		customerName: param(spec, paramCustomerColumn, defCustomerColumn),
		accountName:  param(spec, paramAccountColumn, defAccountColumn),
	}

	var err error
	for _, bind := range []struct {
		name string
		dst  *int
	}{
		{cols.customerName, &cols.customer},
		{cols.accountName, &cols.account},
		{param(spec, paramBalanceColumn, defBalanceColumn), &cols.balance},
		{param(spec, paramPaymentsColumn, defPaymentsColumn), &cols.payments},
		{param(spec, paramArrearsColumn, defArrearsColumn), &cols.arrears},
		{param(spec, paramDateColumn, defDateColumn), &cols.date},
		{param(spec, paramOriginalTermColumn, defOriginalTermColumn), &cols.originalTerm},
		{param(spec, paramRemainingTermColumn, defRemainingTermColumn), &cols.remainingTerm},
	} {
		*bind.dst, err = tab.col(bind.name)
		if err != nil {
			return nil, err
		}
	}
	return cols, nil
}

func accountAggregation(tab *table, cols *columns) ([][]string, error) {
	type acc struct {
		customer, account string
		balance, payments float64
		arrears           float64
		rows              int
	}

	byKey := map[string]*acc{}
	for _, row := range tab.rows {
		key := row[cols.customer] + "\x00" + row[cols.account]
		a, ok := byKey[key]
		if !ok {
			a = &acc{customer: row[cols.customer], account: row[cols.account]}
			byKey[key] = a
		}

		balance, err := strconv.ParseFloat(row[cols.balance], 64)
		if err != nil {
			return nil, err
		}
		payments, err := strconv.ParseFloat(row[cols.payments], 64)
		if err != nil {
			return nil, err
		}
		arrears, err := strconv.ParseFloat(row[cols.arrears], 64)
		if err != nil {
			return nil, err
		}

		a.balance += balance
		a.payments += payments
		a.arrears += arrears
		a.rows++
	}

	out := [][]string{}
	for _, a := range byKey {
		out = append(out, []string{
			a.customer,
			a.account,
			formatFloat(a.balance / float64(a.rows)),
			formatFloat(a.payments / float64(a.rows)),
			formatFloat(a.arrears),
		})
	}
	sortRows(out)
	return out, nil
}

func monthlyBalances(tab *table, cols *columns) ([][]string, error) {
	type month struct {
		customer, date   string
		balance, arrears float64
		accounts         int
	}

	byKey := map[string]*month{}
	for _, row := range tab.rows {
		opened, err := parseDate(row[cols.date])
		if err != nil {
			return nil, err
		}
		original, err := strconv.Atoi(row[cols.originalTerm])
		if err != nil {
			return nil, err
		}
		remaining, err := strconv.Atoi(row[cols.remainingTerm])
		if err != nil {
			return nil, err
		}

		// the month this account's current payment falls in
		paid := opened.AddDate(0, original-remaining, 0)
		date := paid.Format("2006-01")

		key := row[cols.customer] + "\x00" + date
		m, ok := byKey[key]
		if !ok {
			m = &month{customer: row[cols.customer], date: date}
			byKey[key] = m
		}

		balance, err := strconv.ParseFloat(row[cols.balance], 64)
		if err != nil {
			return nil, err
		}
		arrears, err := strconv.ParseFloat(row[cols.arrears], 64)
		if err != nil {
			return nil, err
		}

		m.balance += balance
		m.arrears += arrears
		m.accounts++
	}

	out := [][]string{}
	for _, m := range byKey {
		out = append(out, []string{
			m.customer,
			m.date,
			formatFloat(m.balance),
			formatFloat(m.arrears),
			strconv.Itoa(m.accounts),
		})
	}
	sortRows(out)
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sortRows orders rows by their leading columns so output is deterministic.
func sortRows(rows [][]string) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
}
