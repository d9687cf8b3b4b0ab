package enums

// StockCheckOutcome labels the result of a cart availability check.
type StockCheckOutcome string

const (
	StockCheckAvailable StockCheckOutcome = "available"
	StockCheckShortage  StockCheckOutcome = "shortage"
	StockCheckRejected  StockCheckOutcome = "rejected"
)

// String implements fmt.Stringer.
func (s StockCheckOutcome) String() string {
	return string(s)
}
