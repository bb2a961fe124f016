package agents

import (
	"hash/fnv"
	"math"
	"time"
)

// priceSource describes one simulated competitor feed. Offsets are derived
// from a hash of (product id, source name), so every quote is a pure
// function of its inputs and reproducible without a live feed.
type priceSource struct {
	Name      string
	MinFactor float64 // lower bound of the price multiplier
	MaxFactor float64 // upper bound of the price multiplier
}

// priceSources are the fixed competitor set. Our own store quotes the base
// price unchanged.
var priceSources = []priceSource{
	{Name: "SmartShop", MinFactor: 1.00, MaxFactor: 1.00},
	{Name: "MegaMart", MinFactor: 0.92, MaxFactor: 1.10},
	{Name: "DealHub", MinFactor: 0.88, MaxFactor: 1.05},
	{Name: "QuickKart", MinFactor: 0.95, MaxFactor: 1.15},
}

// PriceQuote is one deterministic multi-source price snapshot.
type PriceQuote struct {
	ProductID   string             `json:"product_id"`
	ProductName string             `json:"product_name"`
	Prices      map[string]float64 `json:"prices"`
	BestSource  string             `json:"best_source"`
	BestPrice   float64            `json:"best_price"`
	SavingsPct  float64            `json:"savings_pct"`
	CachedAt    int64              `json:"cached_at"`
}

// computeQuote derives every source's price from (product id, source, base
// price). Repeated calls return identical prices.
func computeQuote(productID, productName string, basePrice float64) *PriceQuote {
	quote := &PriceQuote{
		ProductID:   productID,
		ProductName: productName,
		Prices:      make(map[string]float64, len(priceSources)),
		CachedAt:    time.Now().Unix(),
	}

	var worst float64
	for _, source := range priceSources {
		price := sourcePrice(productID, source, basePrice)
		quote.Prices[source.Name] = price
		if quote.BestSource == "" || price < quote.BestPrice {
			quote.BestSource, quote.BestPrice = source.Name, price
		}
		if price > worst {
			worst = price
		}
	}

	if worst > 0 {
		quote.SavingsPct = math.Round((worst-quote.BestPrice)/worst*10000) / 100
	}
	return quote
}

// sourcePrice maps the FNV-1a hash of "productID|source" into the source's
// factor range and applies the .99 retail convention.
func sourcePrice(productID string, source priceSource, basePrice float64) float64 {
	if source.MinFactor == source.MaxFactor {
		return roundTo99(basePrice * source.MinFactor)
	}

	h := fnv.New64a()
	h.Write([]byte(productID))
	h.Write([]byte{'|'})
	h.Write([]byte(source.Name))
	fraction := float64(h.Sum64()%10000) / 10000

	factor := source.MinFactor + fraction*(source.MaxFactor-source.MinFactor)
	return roundTo99(basePrice * factor)
}

// roundTo99 rounds to the nearest x.99 price point, never below 0.99.
func roundTo99(price float64) float64 {
	dollars := math.Round(price)
	if dollars < 1 {
		dollars = 1
	}
	return dollars - 0.01
}
