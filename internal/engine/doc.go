// Package engine executes buy/sell transactions against registered shops.
//
// A transaction moves items and currency between two independently
// failing resource pools: the shop's container and the currency ledger.
// The protocol always moves items before currency, because an item
// transfer can be rolled back exactly (the units still exist) while a
// half-done currency move cannot. Every rejection path restores the exact
// pre-transaction state; no actor ever observes a partial trade.
//
// Concurrency: each shop is guarded by a non-blocking lock keyed by its
// sign position. A contended attempt is rejected immediately with "in
// progress" rather than queued, because the domain tolerates "try again"
// but not head-of-line blocking on a shared fixture. The key is derived
// from position, not record identity, so it stays stable across a
// registry reload.
package engine
