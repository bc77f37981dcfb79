package model

// EmailCategory classifies an email address by the role its local part suggests.
//
// Design decision: We use string constants rather than iota because the
// category is written verbatim into JSON, CSV and the session record, and a
// stable textual form keeps old session files readable.
type EmailCategory string

const (
	// EmailCategoryInfo is a general information mailbox (info@).
	EmailCategoryInfo EmailCategory = "info"
	// EmailCategoryContact is a contact mailbox (contact@).
	EmailCategoryContact EmailCategory = "contact"
	// EmailCategorySales is a sales mailbox (sales@).
	EmailCategorySales EmailCategory = "sales"
	// EmailCategorySupport is a support mailbox (support@).
	EmailCategorySupport EmailCategory = "support"
	// EmailCategoryHello is a hello mailbox (hello@).
	EmailCategoryHello EmailCategory = "hello"
	// EmailCategoryGeneral is any other address with an "@".
	EmailCategoryGeneral EmailCategory = "general"
	// EmailCategoryOther is anything that does not look like an address at all.
	EmailCategoryOther EmailCategory = "other"
)

// String returns the string representation of the category.
func (c EmailCategory) String() string {
	return string(c)
}

// IsRole reports whether the category is a named role mailbox
// rather than a personal or unclassified address.
func (c EmailCategory) IsRole() bool {
	switch c {
	case EmailCategoryInfo, EmailCategoryContact, EmailCategorySales,
		EmailCategorySupport, EmailCategoryHello:
		return true
	default:
		return false
	}
}

// Email is a validated address together with its classification.
type Email struct {
	// Address is the address exactly as it appeared in the page.
	Address string `json:"address"`

	// Category is the role classification of the address.
	Category EmailCategory `json:"category"`

	// Confidence is a heuristic quality estimate in [0,1].
	Confidence float64 `json:"confidence"`
}
