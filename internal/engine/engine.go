package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tradepost/internal/alert"
	"github.com/roach88/tradepost/internal/container"
	"github.com/roach88/tradepost/internal/econ"
	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/sign"
	"github.com/roach88/tradepost/internal/tradelog"
	"github.com/roach88/tradepost/internal/world"
)

// Direction says which way a transaction moves items.
type Direction int

const (
	// Buy transfers a bundle from the shop container to the actor.
	Buy Direction = iota + 1
	// Sell transfers a bundle from the actor to the shop container.
	Sell
)

// String returns "buy" or "sell".
func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// Containers resolves the item pools involved in a transaction.
type Containers interface {
	ForShop(pos world.Position) (container.Service, bool)
	ForActor(id uuid.UUID) (container.Service, bool)
}

// Access answers the fast gate checks: whether an actor may use shops at
// all and whether their current interaction mode permits trading.
type Access interface {
	CanUse(actor uuid.UUID) bool
	TradingAllowed(actor uuid.UUID) bool
}

// OpenAccess permits everyone. Used by the simulator and tests.
type OpenAccess struct{}

func (OpenAccess) CanUse(uuid.UUID) bool         { return true }
func (OpenAccess) TradingAllowed(uuid.UUID) bool { return true }

// Alerts is the post-commit notification sink. Satisfied by
// alert.Notifier; nil disables alerts.
type Alerts interface {
	Notify(owner uuid.UUID, kind alert.Kind, ctx alert.Context)
}

// TradeRecorder is the durable commit log. Satisfied by tradelog.Log;
// nil disables history recording.
type TradeRecorder interface {
	Record(ctx context.Context, t tradelog.Trade) error
}

// Outcome is the result of one transaction attempt.
type Outcome struct {
	Committed  bool
	Code       Code   // set when rejected
	Reason     string // human-readable; set when rejected
	TradeToken string // set when committed
	Gross      float64
	Tax        float64
	Net        float64
}

// Engine coordinates the registry, ledger and containers to execute
// transactions. Safe for concurrent use; per-shop locks serialize access
// to each shop without blocking.
type Engine struct {
	registry   *shop.Registry
	ledger     econ.Ledger
	containers Containers
	access     Access
	locks      *lockSet
	cooldowns  *cooldowns
	log        *slog.Logger

	taxPercent float64
	alerts     Alerts
	lowStock   int
	lowFunds   float64
	trades     TradeRecorder
	clock      Clock
	handlers   map[EventKind]Handler
}

// Option configures the engine.
type Option func(*Engine)

// WithClock injects a time source for cooldown tracking and trade
// timestamps. Tests use testutil.Clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithCooldown sets the per-actor attempt window.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldowns = newCooldowns(d, nil) }
}

// WithTax sets the transaction tax percentage, clamped to [0,100].
func WithTax(percent float64) Option {
	return func(e *Engine) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		e.taxPercent = percent
	}
}

// WithAlerts wires the post-commit notifier and its thresholds.
func WithAlerts(a Alerts, lowStock int, lowFunds float64) Option {
	return func(e *Engine) {
		e.alerts = a
		e.lowStock = lowStock
		e.lowFunds = lowFunds
	}
}

// WithTradeLog wires the durable commit log.
func WithTradeLog(rec TradeRecorder) Option {
	return func(e *Engine) { e.trades = rec }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine over the given collaborators.
func New(reg *shop.Registry, ledger econ.Ledger, containers Containers, access Access, opts ...Option) *Engine {
	e := &Engine{
		registry:   reg,
		ledger:     ledger,
		containers: containers,
		access:     access,
		locks:      newLockSet(),
		log:        slog.Default(),
		clock:      systemClock{},
		handlers:   defaultHandlers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cooldowns == nil {
		e.cooldowns = newCooldowns(DefaultCooldown, e.clock)
	} else {
		e.cooldowns.clock = e.clock
	}
	return e
}

// ActorLeft clears per-actor bookkeeping when an actor leaves the world.
func (e *Engine) ActorLeft(actor uuid.UUID) {
	e.cooldowns.forget(actor)
}

// Attempt executes one transaction: resolve the shop at signPos, run the
// gate checks, take the shop's lock, and drive the transfer protocol.
// The outcome is terminal: Committed, or rejected with a specific reason
// and the exact pre-transaction state restored.
func (e *Engine) Attempt(ctx context.Context, actor uuid.UUID, signPos world.Position, dir Direction) Outcome {
	s, ok := e.registry.LookupBySign(signPos)
	if !ok {
		return rejected(reject(CodeNoShop, "no shop here"))
	}

	// Gate checks: fast, no side effects, first failure wins.
	if !e.access.CanUse(actor) {
		return rejected(reject(CodeNoPermission, "you don't have permission to use shops"))
	}
	if !e.access.TradingAllowed(actor) {
		return rejected(reject(CodeModeBlocked, "you cannot use shops in your current mode"))
	}
	if actor == s.OwnerID() {
		return rejected(reject(CodeOwnShop, "this is your own shop"))
	}
	if e.cooldowns.hit(actor) {
		return rejected(reject(CodeCooldown, "please wait before trading again"))
	}

	// Lock contention is resolved by immediate rejection, never queuing.
	key := s.SignKey()
	if !e.locks.TryAcquire(key) {
		return rejected(reject(CodeBusy, "another transaction is in progress"))
	}
	defer e.locks.Release(key)

	switch dir {
	case Buy:
		if !s.CanBuy() {
			return rejected(reject(CodeNotSelling, "this shop is not selling"))
		}
		return e.buy(ctx, actor, s)
	case Sell:
		if !s.CanSell() {
			return rejected(reject(CodeNotBuying, "this shop is not buying"))
		}
		return e.sell(ctx, actor, s)
	default:
		return rejected(reject(CodeNoShop, "unknown transaction direction"))
	}
}

// buy moves one bundle from the shop container to the actor, then the
// price from actor to owner minus tax.
func (e *Engine) buy(ctx context.Context, actor uuid.UUID, s *shop.Shop) Outcome {
	chest, ok := e.containers.ForShop(s.ChestPos())
	if !ok {
		return rejected(reject(CodeNoContainer, "shop container not found"))
	}
	inv, ok := e.containers.ForActor(actor)
	if !ok {
		return rejected(reject(CodeNoContainer, "your inventory is unavailable"))
	}
	price := s.BuyPrice()

	// Availability checks: read-only, no mutation yet.
	if chest.Count(s.Item()) < s.Bundle() {
		return rejected(reject(CodeOutOfStock, "shop is out of stock"))
	}
	if !e.ledger.Has(actor, price) {
		return rejected(reject(CodeInsufficientFunds, "you don't have enough money: need $%s", sign.FormatPrice(price)))
	}
	if !inv.CanAccept(s.Item(), s.Bundle()) {
		return rejected(reject(CodeNoSpace, "your inventory is full"))
	}

	// Items before currency. The withdrawn stacks carry the exact units
	// (metadata included) so every rollback reinstates them verbatim.
	withdrawn, err := chest.Withdraw(s.Item(), s.Bundle())
	if err != nil {
		return rejected(reject(CodeOutOfStock, "shop is out of stock"))
	}
	if leftover := inv.Deposit(withdrawn); len(leftover) > 0 {
		inv.Remove(acceptedOf(withdrawn, leftover))
		chest.Deposit(withdrawn)
		return rejected(reject(CodeNoSpace, "your inventory is full"))
	}

	// The availability check above is not assumed race-free against the
	// external ledger.
	if resp := e.ledger.Withdraw(actor, price); !resp.OK {
		inv.Remove(withdrawn)
		chest.Deposit(withdrawn)
		return rejected(reject(CodeInsufficientFunds, "insufficient funds: %s", resp.Reason))
	}

	tax := price * (e.taxPercent / 100)
	net := price - tax
	if resp := e.ledger.Deposit(s.OwnerID(), net); !resp.OK {
		// Critical path: refund the full pre-tax price, then reverse the
		// item transfer. Currency withdrawn from one party must always
		// see an equal and opposite correction.
		e.ledger.Deposit(actor, price)
		inv.Remove(withdrawn)
		chest.Deposit(withdrawn)
		e.log.Warn("owner deposit failed", "owner", s.OwnerName(), "reason", resp.Reason)
		return rejected(reject(CodeDepositFailed, "could not pay the shop owner"))
	}

	out := e.commit(ctx, actor, s, Buy, price, tax, net)

	if e.alerts != nil {
		remaining := chest.Count(s.Item())
		actx := alert.Context{Item: s.Item(), ShopPos: s.SignPos(), Remaining: remaining}
		switch {
		case remaining == 0:
			e.alerts.Notify(s.OwnerID(), alert.KindOutOfStock, actx)
		case remaining <= e.lowStock:
			e.alerts.Notify(s.OwnerID(), alert.KindLowStock, actx)
		}
	}
	return out
}

// sell moves one bundle from the actor to the shop container, then the
// price from owner to actor minus tax.
func (e *Engine) sell(ctx context.Context, actor uuid.UUID, s *shop.Shop) Outcome {
	chest, ok := e.containers.ForShop(s.ChestPos())
	if !ok {
		return rejected(reject(CodeNoContainer, "shop container not found"))
	}
	inv, ok := e.containers.ForActor(actor)
	if !ok {
		return rejected(reject(CodeNoContainer, "your inventory is unavailable"))
	}
	price := s.SellPrice()

	if inv.Count(s.Item()) < s.Bundle() {
		return rejected(reject(CodeMissingItems, "you don't have enough items to sell"))
	}
	if !chest.CanAccept(s.Item(), s.Bundle()) {
		return rejected(reject(CodeContainerFull, "shop container is full"))
	}
	if !e.ledger.Has(s.OwnerID(), price) {
		return rejected(reject(CodeOwnerFunds, "shop owner doesn't have enough money"))
	}

	withdrawn, err := inv.Withdraw(s.Item(), s.Bundle())
	if err != nil {
		return rejected(reject(CodeMissingItems, "you don't have enough items to sell"))
	}
	if leftover := chest.Deposit(withdrawn); len(leftover) > 0 {
		chest.Remove(acceptedOf(withdrawn, leftover))
		inv.Deposit(withdrawn)
		return rejected(reject(CodeContainerFull, "shop container is full"))
	}

	if resp := e.ledger.Withdraw(s.OwnerID(), price); !resp.OK {
		chest.Remove(withdrawn)
		inv.Deposit(withdrawn)
		return rejected(reject(CodeOwnerFunds, "shop owner has insufficient funds"))
	}

	tax := price * (e.taxPercent / 100)
	net := price - tax
	if resp := e.ledger.Deposit(actor, net); !resp.OK {
		e.ledger.Deposit(s.OwnerID(), price)
		chest.Remove(withdrawn)
		inv.Deposit(withdrawn)
		e.log.Warn("seller deposit failed", "actor", actor, "reason", resp.Reason)
		return rejected(reject(CodeDepositFailed, "could not receive payment"))
	}

	out := e.commit(ctx, actor, s, Sell, price, tax, net)

	if e.alerts != nil {
		if bal := e.ledger.Balance(s.OwnerID()); bal < e.lowFunds {
			e.alerts.Notify(s.OwnerID(), alert.KindLowFunds, alert.Context{
				Item: s.Item(), ShopPos: s.SignPos(), Balance: bal,
			})
		}
		if !chest.CanAccept(s.Item(), 1) {
			e.alerts.Notify(s.OwnerID(), alert.KindContainerFull, alert.Context{
				Item: s.Item(), ShopPos: s.SignPos(),
			})
		}
	}
	return out
}

// commit logs the completed transaction and records it durably. Both are
// best-effort side effects of an already-final outcome.
func (e *Engine) commit(ctx context.Context, actor uuid.UUID, s *shop.Shop, dir Direction, gross, tax, net float64) Outcome {
	token := uuid.Must(uuid.NewV7()).String()

	e.log.Info("transaction committed",
		"token", token,
		"direction", dir.String(),
		"actor", actor,
		"owner", s.OwnerName(),
		"item", s.Item(),
		"bundle", s.Bundle(),
		"gross", sign.FormatPrice(gross),
		"tax", sign.FormatPrice(tax),
	)

	if e.trades != nil {
		t := tradelog.Trade{
			Token:       token,
			CommittedAt: e.clock.Now(),
			ActorID:     actor,
			OwnerID:     s.OwnerID(),
			ShopKey:     s.SignKey(),
			Item:        s.Item(),
			Bundle:      s.Bundle(),
			Direction:   dir.String(),
			Gross:       gross,
			Tax:         tax,
			Net:         net,
		}
		if err := e.trades.Record(ctx, t); err != nil {
			e.log.Warn("trade log write failed", "token", token, "error", err)
		}
	}

	return Outcome{
		Committed:  true,
		TradeToken: token,
		Gross:      gross,
		Tax:        tax,
		Net:        net,
	}
}

// rejected converts a Rejection into an Outcome.
func rejected(r *Rejection) Outcome {
	return Outcome{Code: r.Code, Reason: r.Reason}
}

// acceptedOf computes which units a destination actually kept: the
// withdrawn stacks minus the reported leftover, matched per stack kind.
func acceptedOf(withdrawn, leftover []container.Stack) []container.Stack {
	var accepted []container.Stack
	for _, w := range withdrawn {
		kept := w.Clone()
		for i := range leftover {
			if leftover[i].Count == 0 || leftover[i].Item != w.Item {
				continue
			}
			if !sameMeta(leftover[i].Meta, w.Meta) {
				continue
			}
			back := leftover[i].Count
			if back > kept.Count {
				back = kept.Count
			}
			kept.Count -= back
			leftover[i].Count -= back
		}
		if kept.Count > 0 {
			accepted = append(accepted, kept)
		}
	}
	return accepted
}

func sameMeta(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
