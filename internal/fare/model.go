// README: Fare breakdown and result types for the fare engine.
package fare

// TaxRate is the fixed tax fraction applied to the subtotal.
const TaxRate = 0.18

// CommissionRate is the default platform cut on a completed fare.
const CommissionRate = 0.20

// Breakdown is the itemised fare for a trip. All amounts are rounded to two
// decimals and non-negative. Subtotal = BaseFare + DistanceCharge;
// TotalFare = Subtotal + Taxes - Discount, clamped at zero.
type Breakdown struct {
	BaseFare       float64 `json:"base_fare"`
	DistanceCharge float64 `json:"distance_charge"`
	Subtotal       float64 `json:"subtotal"`
	Taxes          float64 `json:"taxes"`
	Discount       float64 `json:"discount"`
	TotalFare      float64 `json:"total_fare"`
}

// DiscountResult reports a discount application against a fare.
type DiscountResult struct {
	OriginalFare float64 `json:"original_fare"`
	Discount     float64 `json:"discount"`
	FinalFare    float64 `json:"final_fare"`
}

// SurgeResult reports demand-based fare scaling.
type SurgeResult struct {
	BaseFare        float64 `json:"base_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeAmount     float64 `json:"surge_amount"`
	TotalFare       float64 `json:"total_fare"`
}

// CommissionResult splits a fare between the platform and the driver.
type CommissionResult struct {
	TotalFare      float64 `json:"total_fare"`
	Commission     float64 `json:"commission"`
	DriverEarnings float64 `json:"driver_earnings"`
	CommissionRate float64 `json:"commission_rate"`
}
