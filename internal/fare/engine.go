// README: Fare engine; pure functions over distance and tariff inputs.
package fare

import "math"

// Compose builds the itemised fare for a trip. Round trips double both the
// base fare and the distance charge.
func Compose(distanceKm, pricePerKm, basePrice float64, trip TripType) Breakdown {
	multiplier := 1.0
	if trip == TripRoundTrip {
		multiplier = 2.0
	}

	baseFare := round2(basePrice * multiplier)
	distanceCharge := round2(distanceKm * pricePerKm * multiplier)
	subtotal := round2(baseFare + distanceCharge)
	taxes := round2(subtotal * TaxRate)

	return Breakdown{
		BaseFare:       baseFare,
		DistanceCharge: distanceCharge,
		Subtotal:       subtotal,
		Taxes:          taxes,
		TotalFare:      round2(subtotal + taxes),
	}
}

// Surge scales a fare by demand. The multiplier is clamped to [1.0, 3.0].
func Surge(baseFare, demandFactor float64) SurgeResult {
	multiplier := demandFactor
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	if multiplier > 3.0 {
		multiplier = 3.0
	}

	total := round2(baseFare * multiplier)
	return SurgeResult{
		BaseFare:        round2(baseFare),
		SurgeMultiplier: multiplier,
		SurgeAmount:     round2(total - baseFare),
		TotalFare:       total,
	}
}

// Commission splits a fare between platform and driver at the given rate.
func Commission(totalFare, rate float64) CommissionResult {
	commission := round2(totalFare * rate)
	return CommissionResult{
		TotalFare:      round2(totalFare),
		Commission:     commission,
		DriverEarnings: round2(totalFare - commission),
		CommissionRate: rate,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
