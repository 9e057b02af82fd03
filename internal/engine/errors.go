package engine

import (
	"errors"
	"fmt"
)

// Code categorizes why a transaction attempt was rejected.
type Code string

const (
	// CodeNoShop means no shop is registered at the interaction position.
	CodeNoShop Code = "NO_SHOP"
	// CodeNoPermission means the actor lacks the shop-usage capability.
	CodeNoPermission Code = "NO_PERMISSION"
	// CodeModeBlocked means the actor's interaction mode forbids trading.
	CodeModeBlocked Code = "MODE_BLOCKED"
	// CodeOwnShop means the actor tried to trade with their own shop.
	CodeOwnShop Code = "OWN_SHOP"
	// CodeCooldown means the actor retried inside the per-actor cooldown.
	CodeCooldown Code = "COOLDOWN"
	// CodeBusy means another transaction holds the shop's lock.
	CodeBusy Code = "IN_PROGRESS"

	// CodeNotSelling means the shop has no buy price.
	CodeNotSelling Code = "NOT_SELLING"
	// CodeNotBuying means the shop has no sell price.
	CodeNotBuying Code = "NOT_BUYING"
	// CodeNoContainer means the shop's backing container is unreachable.
	CodeNoContainer Code = "NO_CONTAINER"

	// CodeOutOfStock means the container holds fewer units than a bundle.
	CodeOutOfStock Code = "OUT_OF_STOCK"
	// CodeInsufficientFunds means the payer cannot cover the price.
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	// CodeNoSpace means the buyer cannot receive the bundle.
	CodeNoSpace Code = "NO_SPACE"
	// CodeMissingItems means the seller lacks a full bundle.
	CodeMissingItems Code = "MISSING_ITEMS"
	// CodeContainerFull means the shop container cannot accept the bundle.
	CodeContainerFull Code = "CONTAINER_FULL"
	// CodeOwnerFunds means the shop owner cannot cover a sale.
	CodeOwnerFunds Code = "OWNER_FUNDS"
	// CodeDepositFailed means the payee deposit failed; the payer was
	// refunded in full and the item transfer reversed.
	CodeDepositFailed Code = "DEPOSIT_FAILED"
)

// Rejection is a failed transaction attempt. It carries a machine code
// for callers that branch and one specific human-readable reason for the
// initiating actor.
type Rejection struct {
	Code   Code
	Reason string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

// reject builds a Rejection with a formatted reason.
func reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is a Rejection with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code == code
	}
	return false
}
