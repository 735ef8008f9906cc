package core

import (
	"strings"
	"time"
)

const (
	Loaded LoadStatus = iota
	DefaultedMissing
	DefaultedCorrupt
)

// DefaultStudentName is the account holder used when nothing is persisted.
const DefaultStudentName = "Student"

// DefaultBalance is the opening balance, 1000.00.
var DefaultBalance = Money{Cents: 100000}

type (
	// LoadStatus tells how the in-memory account was obtained.
	LoadStatus int

	// Money is an amount in cents of the single implicit currency.
	Money struct {
		Cents int64
	}

	// Account is the single balance record managed by the ledger.
	Account struct {
		Name    string
		Balance Money
	}

	// BalanceChange describes a completed mutation of the account.
	BalanceChange struct {
		Operation  string
		Amount     Money
		Account    Account
		OccurredAt time.Time
	}

	// LoadResult always carries a usable account. Err records why the
	// default account was substituted and is nil when Status is Loaded.
	LoadResult struct {
		Account Account
		Status  LoadStatus
		Err     error
	}
)

func (s LoadStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case DefaultedMissing:
		return "defaulted-missing"
	case DefaultedCorrupt:
		return "defaulted-corrupt"
	default:
		return "unknown"
	}
}

// Defaulted reports whether the default account was substituted.
func (s LoadStatus) Defaulted() bool {
	return s != Loaded
}

// DefaultAccount returns {Student, 1000.00}.
func DefaultAccount() Account {
	return Account{Name: DefaultStudentName, Balance: DefaultBalance}
}

// Normalize fills a blank name with DefaultStudentName.
func (a Account) Normalize() Account {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = DefaultStudentName
	}
	return a
}
