package repository

// Transaction represents a transaction row. Timestamp is UTC epoch seconds.
type Transaction struct {
	ID            string
	Merchant      string
	Category      string
	Amount        float64
	Currency      string
	PaymentMethod string
	Timestamp     int64
	SourceRef     string
}
