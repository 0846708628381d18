package model

import "strings"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists every account type in balance-sheet order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is one of the five known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether balances of this type increase with debits.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// ParseAccountType normalizes a stored type label ("Asset", " expense ").
func ParseAccountType(s string) AccountType {
	return AccountType(strings.ToLower(strings.TrimSpace(s)))
}

// AccountSubtype refines an account type where reporting needs it.
type AccountSubtype string

const (
	SubtypeNone    AccountSubtype = ""
	SubtypePayroll AccountSubtype = "payroll"
)

// Account is a row of the chart of accounts.
type Account struct {
	ID       int64
	Code     string
	Name     string
	Type     AccountType
	Subtype  AccountSubtype
	IsActive bool
}
