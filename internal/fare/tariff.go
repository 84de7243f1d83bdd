// README: Per-cab-type tariff table.
package fare

// TripType selects the fare multiplier.
type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

func (t TripType) Valid() bool {
	return t == TripOneWay || t == TripRoundTrip
}

// CabType enumerates the fleet classes.
type CabType string

const (
	CabSedan     CabType = "sedan"
	CabSUV       CabType = "suv"
	CabLuxury    CabType = "luxury"
	CabTraveller CabType = "traveller"
)

func (c CabType) Valid() bool {
	_, ok := tariffs[c]
	return ok
}

// Tariff holds the pricing inputs for one cab type. AvgSpeedKmph feeds trip
// duration estimates.
type Tariff struct {
	CabType      CabType
	BasePrice    float64
	PricePerKm   float64
	AvgSpeedKmph float64
}

var tariffs = map[CabType]Tariff{
	CabSedan:     {CabType: CabSedan, BasePrice: 300, PricePerKm: 12, AvgSpeedKmph: 60},
	CabSUV:       {CabType: CabSUV, BasePrice: 450, PricePerKm: 15, AvgSpeedKmph: 60},
	CabLuxury:    {CabType: CabLuxury, BasePrice: 800, PricePerKm: 22, AvgSpeedKmph: 65},
	CabTraveller: {CabType: CabTraveller, BasePrice: 600, PricePerKm: 18, AvgSpeedKmph: 55},
}

// TariffFor returns the tariff for a cab type; ok is false for unknown types.
func TariffFor(cab CabType) (Tariff, bool) {
	t, ok := tariffs[cab]
	return t, ok
}
