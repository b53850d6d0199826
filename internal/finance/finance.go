// internal/finance/finance.go
package finance

import (
	"encoding/json"
	"sync"

	"github.com/shopspring/decimal"
)

// Data accumulates a seller's running costs and revenues. Profits are
// recomputed on every update, never stored independently of the other two.
// There is no rollback operation; corrections are compensating updates with
// negative amounts.
type Data struct {
	mu       sync.Mutex
	costs    decimal.Decimal
	revenues decimal.Decimal
	profits  decimal.Decimal
}

// NewData returns a zeroed accumulator.
func NewData() *Data {
	return &Data{}
}

// Update adds a sale amount to revenues and a cost amount to costs, then
// recomputes profits.
func (d *Data) Update(saleAmount, costAmount decimal.Decimal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revenues = d.revenues.Add(saleAmount)
	d.costs = d.costs.Add(costAmount)
	d.profits = d.revenues.Sub(d.costs)
}

// RecordSale adds a revenue entry; costs are unaffected.
func (d *Data) RecordSale(amount decimal.Decimal) {
	d.Update(amount, decimal.Zero)
}

// RecordPurchase adds a cost entry; revenues are unaffected.
func (d *Data) RecordPurchase(amount decimal.Decimal) {
	d.Update(decimal.Zero, amount)
}

func (d *Data) Costs() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.costs
}

func (d *Data) Revenues() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revenues
}

func (d *Data) Profits() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profits
}

// Snapshot is the serializable view of the accumulator.
type Snapshot struct {
	Costs    decimal.Decimal `json:"costs"`
	Revenues decimal.Decimal `json:"revenues"`
	Profits  decimal.Decimal `json:"profits"`
}

// Snapshot returns the current values as one consistent read.
func (d *Data) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{Costs: d.costs, Revenues: d.revenues, Profits: d.profits}
}

// Restore rebuilds an accumulator from a persisted snapshot. Profits are
// recomputed from costs and revenues rather than trusted from disk.
func Restore(s Snapshot) *Data {
	return &Data{
		costs:    s.Costs,
		revenues: s.Revenues,
		profits:  s.Revenues.Sub(s.Costs),
	}
}

// MarshalJSON implements json.Marshaler via Snapshot.
func (d *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

// UnmarshalJSON implements json.Unmarshaler via Restore.
func (d *Data) UnmarshalJSON(b []byte) error {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	restored := Restore(s)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.costs = restored.costs
	d.revenues = restored.revenues
	d.profits = restored.profits
	return nil
}
