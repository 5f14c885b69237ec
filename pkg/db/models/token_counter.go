package models

// TokenCounter backs the sequential human-facing order tokens. A single
// row is incremented atomically so concurrent order creation cannot hand
// out duplicate tokens.
type TokenCounter struct {
	ID    int   `gorm:"column:id;primaryKey"`
	Value int64 `gorm:"column:value;not null"`
}

// TokenCounterID is the fixed id of the singleton row.
const TokenCounterID = 1
