package enums

// EntryType distinguishes credits from debits on wallets and ledgers.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// String implements fmt.Stringer.
func (t EntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known EntryType.
func (t EntryType) IsValid() bool {
	return t == EntryTypeCredit || t == EntryTypeDebit
}
