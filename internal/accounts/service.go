package accounts

import (
	"context"
	"fmt"

	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/rowsource"
)

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[int64]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int64]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads the chart of accounts for the scope's tenant. When the accounts
// table has no tenant column and the scope falls back to global rows, every
// active account is returned instead.
func Load(ctx context.Context, r rowsource.Reader, scope rowsource.Scope) (*Service, error) {
	cond, scoped, err := scope.TenantCond(rowsource.TableAccounts)
	if err != nil {
		return nil, err
	}
	q := rowsource.Query{OrderBy: "code, id"}
	if scoped {
		q.Where = []rowsource.Cond{cond}
	} else {
		q.Where = []rowsource.Cond{rowsource.Eq("is_active", true)}
	}

	rows, err := r.Select(ctx, rowsource.TableAccounts, q)
	if err != nil {
		return nil, fmt.Errorf("selecting accounts: %w", err)
	}
	accts := make([]model.Account, 0, len(rows))
	for i, row := range rows {
		acct, err := FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("account row %d: %w", i+1, err)
		}
		accts = append(accts, acct)
	}
	return NewService(accts), nil
}

// FromRow maps an accounts table row to an Account.
func FromRow(row rowsource.Row) (model.Account, error) {
	id, err := row.Int64("id")
	if err != nil {
		return model.Account{}, err
	}
	active := true
	if row.Has("is_active") {
		if active, err = row.Bool("is_active"); err != nil {
			return model.Account{}, err
		}
	}
	acctType := model.ParseAccountType(row.String("type"))
	if !acctType.Valid() {
		return model.Account{}, fmt.Errorf("account %d: unknown type %q", id, row.String("type"))
	}
	return model.Account{
		ID:       id,
		Code:     row.String("code"),
		Name:     row.String("name"),
		Type:     acctType,
		Subtype:  model.AccountSubtype(row.String("subtype")),
		IsActive: active,
	}, nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int64) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}
