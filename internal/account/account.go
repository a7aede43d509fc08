// Package account holds player balances. Every call is atomic: Debit
// checks and deducts in one step so a bet can never overdraw, and both
// implementations serialize mutations touching the same balance.
package account

import "errors"

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrUnknownAccount = errors.New("unknown account")
var ErrBadAmount = errors.New("amount must be positive")
