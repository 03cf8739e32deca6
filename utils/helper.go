package utils

import (
	"github.com/shopspring/decimal"
)

// RoundMoney rounds to cents with banker's rounding. All company ledger
// deltas and balances pass through here before they are written.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(2)
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
