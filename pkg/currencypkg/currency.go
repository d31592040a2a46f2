// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// IsValid returns true if the currency code is usable as a balance key.
// Any non-blank identifier is accepted; the ledger does not maintain a
// closed list of currencies.
func IsValid(currency string) bool {
	return strings.TrimSpace(currency) != ""
}

// ValidCurrency validates whether a bound request field holds a usable
// currency code.
var ValidCurrency validator.Func = func(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(string); ok {
		return IsValid(c)
	}

	return false
}
