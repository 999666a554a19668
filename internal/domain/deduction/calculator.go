package deduction

import (
	"github.com/shopspring/decimal"

	"github.com/quoteflow/backend/internal/domain/shared"
)

// Currency is the unit of every amount produced by this package
const Currency = "SEK"

// Policy holds the deduction parameters. Amounts are not rounded here.
type Policy struct {
	LaborShare decimal.Decimal
	Rate       decimal.Decimal
	Cap        decimal.Decimal
}

// DefaultPolicy is 70% labor share, 50% rate, capped at 50 000 SEK
func DefaultPolicy() Policy {
	return Policy{
		LaborShare: decimal.NewFromFloat(0.70),
		Rate:       decimal.NewFromFloat(0.50),
		Cap:        decimal.NewFromInt(50000),
	}
}

// NewPolicy creates a policy from configuration values
func NewPolicy(laborShare, rate, limit float64) (Policy, error) {
	p := Policy{
		LaborShare: decimal.NewFromFloat(laborShare),
		Rate:       decimal.NewFromFloat(rate),
		Cap:        decimal.NewFromFloat(limit),
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks that shares are within [0,1] and the cap is not negative
func (p Policy) Validate() error {
	one := decimal.NewFromInt(1)
	if p.LaborShare.IsNegative() || p.LaborShare.GreaterThan(one) {
		return shared.NewDomainError("INVALID_POLICY", "labor share must be between 0 and 1")
	}
	if p.Rate.IsNegative() || p.Rate.GreaterThan(one) {
		return shared.NewDomainError("INVALID_POLICY", "deduction rate must be between 0 and 1")
	}
	if p.Cap.IsNegative() {
		return shared.NewDomainError("INVALID_POLICY", "deduction cap cannot be negative")
	}
	return nil
}

// Calculate returns min(total * laborShare * rate, cap), or zero for a non-positive total
func (p Policy) Calculate(total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	amount := total.Mul(p.LaborShare).Mul(p.Rate)
	if amount.GreaterThan(p.Cap) {
		return p.Cap
	}
	return amount
}

// NetPayable is what the customer pays after the deduction
func NetPayable(total, deduction decimal.Decimal) decimal.Decimal {
	return total.Sub(deduction)
}

// CalculateDeduction applies the default policy
func CalculateDeduction(total decimal.Decimal) decimal.Decimal {
	return DefaultPolicy().Calculate(total)
}

// Breakdown is the full calculation shown to a customer before and at acceptance
type Breakdown struct {
	Total        decimal.Decimal
	LaborPortion decimal.Decimal
	Deduction    decimal.Decimal
	NetPayable   decimal.Decimal
	Capped       bool
	Currency     string
}

// Preview computes the breakdown for total using the same math as Calculate
func (p Policy) Preview(total decimal.Decimal) Breakdown {
	d := p.Calculate(total)
	labor := decimal.Zero
	if total.IsPositive() {
		labor = total.Mul(p.LaborShare)
	}
	return Breakdown{
		Total:        total,
		LaborPortion: labor,
		Deduction:    d,
		NetPayable:   NetPayable(total, d),
		Capped:       labor.Mul(p.Rate).GreaterThan(p.Cap),
		Currency:     Currency,
	}
}
