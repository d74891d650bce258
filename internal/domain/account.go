package domain

import (
	"regexp"
	"strings"
)

// AccountType classifies where money is held.
type AccountType string

// Account types.
const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCard       AccountType = "card"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
)

// DefaultCurrency is used when an account is created without a currency.
const DefaultCurrency = "EUR"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Account is a place money is held: a wallet, a bank account, a card.
type Account struct {
	Ownership

	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	Currency       string      `json:"currency"`
	InitialBalance Money       `json:"initial_balance"`
}

// NewAccount returns an Account with default type and currency.
func NewAccount() *Account {
	return &Account{Type: AccountTypeCash, Currency: DefaultCurrency}
}

// AccountPatch holds the fields accepted on account create and update.
type AccountPatch struct {
	Name           *string      `json:"name"`
	Type           *AccountType `json:"type"`
	Currency       *string      `json:"currency"`
	InitialBalance *Money       `json:"initial_balance"`
}

// Validate implements Patch.
func (p *AccountPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if p.Type != nil {
		v.OneOf("type", string(*p.Type),
			string(AccountTypeCash), string(AccountTypeBank), string(AccountTypeCard),
			string(AccountTypeSavings), string(AccountTypeInvestment))
	}
	if p.Currency != nil {
		v.Check(currencyPattern.MatchString(strings.ToUpper(trimmed(p.Currency))), "currency", "must be a three-letter ISO 4217 code")
	}
	return v.Err()
}

// Apply implements Patch.
func (p *AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = trimmed(p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Currency != nil {
		a.Currency = strings.ToUpper(trimmed(p.Currency))
	}
	if p.InitialBalance != nil {
		a.InitialBalance = *p.InitialBalance
	}
}
