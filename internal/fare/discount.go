// README: Discount code table and application rules.
package fare

type discountType string

const (
	discountPercentage discountType = "percentage"
	discountFixed      discountType = "fixed"
)

type discountDef struct {
	Type        discountType
	Value       float64
	MaxDiscount float64 // 0 = uncapped
	MinFare     float64 // 0 = no minimum
}

// Discount codes are a fixed table; promotions change rarely enough that a
// redeploy is acceptable.
var discounts = map[string]discountDef{
	"FIRST20":   {Type: discountPercentage, Value: 20, MaxDiscount: 500},
	"FESTIVE10": {Type: discountPercentage, Value: 10, MaxDiscount: 300},
	"FLAT100":   {Type: discountFixed, Value: 100, MinFare: 1000},
	"WELCOME50": {Type: discountFixed, Value: 50},
}

// ApplyDiscount applies a discount code to a fare. An unknown code is not an
// error: it yields a zero discount and leaves the fare unchanged.
func ApplyDiscount(fareAmount float64, code string) DiscountResult {
	res := DiscountResult{
		OriginalFare: round2(fareAmount),
		FinalFare:    round2(fareAmount),
	}

	def, ok := discounts[code]
	if !ok {
		return res
	}

	var discount float64
	switch def.Type {
	case discountPercentage:
		discount = fareAmount * def.Value / 100
		if def.MaxDiscount > 0 && discount > def.MaxDiscount {
			discount = def.MaxDiscount
		}
	case discountFixed:
		if def.MinFare > 0 && fareAmount < def.MinFare {
			return res
		}
		discount = def.Value
	}

	res.Discount = round2(discount)
	final := fareAmount - discount
	if final < 0 {
		final = 0
	}
	res.FinalFare = round2(final)
	return res
}
