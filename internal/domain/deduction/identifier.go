// Package deduction holds the ROT labor-cost deduction rules: customer
// identifier handling and the deduction amount calculation. Everything here is
// pure and safe to call from any layer.
package deduction

import (
	"errors"
	"regexp"
	"strings"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// Kind discriminates between the two identifier variants
type Kind string

const (
	KindPerson  Kind = "person"
	KindCompany Kind = "company"
)

// IsValid checks if the kind is a known variant
func (k Kind) IsValid() bool {
	return k == KindPerson || k == KindCompany
}

func (k Kind) String() string {
	return string(k)
}

var (
	personPattern  = regexp.MustCompile(`^(\d{8}|\d{6})-\d{4}$`)
	companyPattern = regexp.MustCompile(`^\d{6}-\d{4}$`)
)

// Identifier is a customer tax identifier: either a Person or a Company, never both.
type Identifier interface {
	Kind() Kind
	Value() string
	isIdentifier()
}

// Person identifies a private customer by national identity number
type Person struct {
	NationalID string
}

func (p Person) Kind() Kind    { return KindPerson }
func (p Person) Value() string { return p.NationalID }
func (Person) isIdentifier()   {}

// Company identifies a business customer by organisation number
type Company struct {
	OrgNumber string
}

func (c Company) Kind() Kind    { return KindCompany }
func (c Company) Value() string { return c.OrgNumber }
func (Company) isIdentifier()   {}

// ValidateIdentifier checks the format of an identifier. No checksum is applied.
func ValidateIdentifier(kind Kind, value string) bool {
	switch kind {
	case KindPerson:
		return personPattern.MatchString(value)
	case KindCompany:
		return companyPattern.MatchString(value)
	default:
		return false
	}
}

// FormatIdentifier strips everything but digits and puts the hyphen back before
// the four-digit suffix once the digit count is complete (10, or 12 for persons).
// Incomplete input is returned as bare digits.
func FormatIdentifier(kind Kind, raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		return digits[:6] + "-" + digits[6:]
	case len(digits) == 12 && kind == KindPerson:
		return digits[:8] + "-" + digits[8:]
	default:
		return digits
	}
}

// NewIdentifier builds the variant for kind without validating value
func NewIdentifier(kind Kind, value string) Identifier {
	switch kind {
	case KindPerson:
		return Person{NationalID: value}
	case KindCompany:
		return Company{OrgNumber: value}
	default:
		return nil
	}
}

// ParseIdentifier formats raw input and validates it, returning a
// VALIDATION_FAILED error naming the offending field.
func ParseIdentifier(kind Kind, raw string) (Identifier, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(shared.FieldError{
			Field:   "identifier_kind",
			Message: "must be person or company",
		})
	}
	formatted := FormatIdentifier(kind, raw)
	if !ValidateIdentifier(kind, formatted) {
		return nil, shared.NewValidationError(shared.FieldError{
			Field:   "identifier",
			Message: identifierHint(kind),
		})
	}
	return NewIdentifier(kind, formatted), nil
}

func identifierHint(kind Kind) string {
	if kind == KindCompany {
		return "organisation number must be in the form XXXXXX-XXXX"
	}
	return "personal identity number must be in the form YYYYMMDD-XXXX or YYMMDD-XXXX"
}

// FromColumns rebuilds an identifier from its two persisted columns.
// Returns nil when neither is set.
func FromColumns(personalID, orgID *string) Identifier {
	if personalID != nil && *personalID != "" {
		return Person{NationalID: *personalID}
	}
	if orgID != nil && *orgID != "" {
		return Company{OrgNumber: *orgID}
	}
	return nil
}

// ToColumns splits an identifier into its persisted person/company columns.
// At most one of the two is non-nil.
func ToColumns(id Identifier) (personalID, orgID *string) {
	switch v := id.(type) {
	case Person:
		s := v.NationalID
		return &s, nil
	case Company:
		s := v.OrgNumber
		return nil, &s
	default:
		return nil, nil
	}
}

// Claim is what the customer submits to receive the deduction
type Claim struct {
	Identifier          Identifier
	PropertyDesignation string
}

// ParseClaim validates identifier and property designation together so that
// every invalid field is reported at once.
func ParseClaim(kind Kind, rawIdentifier, propertyDesignation string) (Claim, error) {
	var details []shared.FieldError

	id, err := ParseIdentifier(kind, rawIdentifier)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			details = append(details, de.Details...)
		}
	}

	property := strings.TrimSpace(propertyDesignation)
	if property == "" {
		details = append(details, shared.FieldError{
			Field:   "property_designation",
			Message: "property designation is required",
		})
	}

	if len(details) > 0 {
		return Claim{}, shared.NewValidationError(details...)
	}
	return Claim{Identifier: id, PropertyDesignation: property}, nil
}
