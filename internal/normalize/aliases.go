package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CanonicalField names one logical column of the canonical billing schema.
type CanonicalField string

const (
	FieldAmount        CanonicalField = "amount"
	FieldCustomer      CanonicalField = "customer"
	FieldInvoiceDate   CanonicalField = "invoice_date"
	FieldInvoiceNumber CanonicalField = "invoice_number"
	FieldDescription   CanonicalField = "description"
	FieldRate          CanonicalField = "rate"
)

// AliasTable maps each canonical field to the column names that may carry
// it, in priority order. The first alias present in a row wins.
type AliasTable map[CanonicalField][]string

// DefaultAliases covers the column naming conventions observed across
// vendor billing exports.
func DefaultAliases() AliasTable {
	return AliasTable{
		FieldAmount:        {"amount", "Amount", "value", "Value", "total", "Total", "charge", "Charge", "billed", "Billed"},
		FieldCustomer:      {"Customer", "customer", "Account", "account", "Client", "client", "Company", "company", "Name"},
		FieldInvoiceDate:   {"Invoice_Date", "invoice_date", "Date", "date", "InvoiceDate"},
		FieldInvoiceNumber: {"InvoiceNumber", "invoiceNumber", "Invoice", "invoice", "Number", "number", "Id", "ID", "Invoice_No"},
		FieldDescription:   {"Item_Desc", "item_desc", "Description", "description", "Memo", "memo", "Activity"},
		FieldRate:          {"Rate", "rate", "Unit Price", "unit_price", "Price"},
	}
}

// LoadAliases reads an alias table from a YAML file. Fields missing from the
// file keep their defaults, so a config only needs to override what differs.
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}

	var loaded map[CanonicalField][]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}

	table := DefaultAliases()
	for field, aliases := range loaded {
		if len(aliases) > 0 {
			table[field] = aliases
		}
	}
	return table, nil
}
