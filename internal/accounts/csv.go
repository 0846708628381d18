package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/glengine/internal/model"
)

// Header lists the accounts.csv columns.
var Header = []string{"id", "tenant_id", "code", "name", "type", "subtype", "is_active"}

const (
	numFields  = 7
	colID      = 0
	colTenant  = 1
	colCode    = 2
	colName    = 3
	colType    = 4
	colSubtype = 5
	colActive  = 6
)

// ReadAccounts reads accounts.csv, ignoring the tenant column.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv with every row owned by tenant.
func WriteAccounts(w io.Writer, tenant string, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(tenant, acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(tenant string, acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(acct.ID, 10)
	row[colTenant] = tenant
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colSubtype] = string(acct.Subtype)
	row[colActive] = strconv.FormatBool(acct.IsActive)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.ParseInt(record[colID], 10, 64)
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}

	active := true
	if record[colActive] != "" {
		active, err = strconv.ParseBool(record[colActive])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing is_active %q: %w", record[colActive], err)
		}
	}

	return model.Account{
		ID:       id,
		Code:     record[colCode],
		Name:     record[colName],
		Type:     model.ParseAccountType(record[colType]),
		Subtype:  model.AccountSubtype(record[colSubtype]),
		IsActive: active,
	}, nil
}
