package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tradepost/internal/container"
	"github.com/roach88/tradepost/internal/creation"
	"github.com/roach88/tradepost/internal/econ"
	"github.com/roach88/tradepost/internal/engine"
	"github.com/roach88/tradepost/internal/holo"
	"github.com/roach88/tradepost/internal/shop"
	"github.com/roach88/tradepost/internal/sign"
	"github.com/roach88/tradepost/internal/world"
)

// Scenario is a scripted trade session loaded from YAML. Players are
// referenced by name throughout; ids are assigned when the scenario is
// built.
type Scenario struct {
	Tax      float64            `yaml:"tax-percent"`
	Balances map[string]float64 `yaml:"balances"`
	Shops    []ScenarioShop     `yaml:"shops"`
	Steps    []ScenarioStep     `yaml:"steps"`
}

// ScenarioShop is one shop definition in a scenario.
type ScenarioShop struct {
	Owner     string  `yaml:"owner"`
	Sign      string  `yaml:"sign"`  // world:x:y:z
	Chest     string  `yaml:"chest"` // world:x:y:z; defaults to sign lowered by one
	Item      string  `yaml:"item"`
	Amount    int     `yaml:"amount"`
	BuyPrice  float64 `yaml:"buy-price"`
	SellPrice float64 `yaml:"sell-price"`
	Stock     int     `yaml:"stock"`
}

// ScenarioStep is one trade attempt in a scenario.
type ScenarioStep struct {
	Actor  string `yaml:"actor"`
	Action string `yaml:"action"` // "buy" | "sell"
	Shop   string `yaml:"shop"`   // sign key
	Give   int    `yaml:"give"`   // pre-seed the actor with this many units
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step      int     `json:"step"`
	Actor     string  `json:"actor"`
	Action    string  `json:"action"`
	Shop      string  `json:"shop"`
	Committed bool    `json:"committed"`
	Code      string  `json:"code,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Gross     float64 `json:"gross,omitempty"`
	Tax       float64 `json:"tax,omitempty"`
	Net       float64 `json:"net,omitempty"`
}

// SimulationReport is the full simulate output.
type SimulationReport struct {
	Steps    []StepResult       `json:"steps"`
	Balances map[string]float64 `json:"balances"`
	Failed   int                `json:"failed"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yml>",
		Short: "Run a scripted trade scenario in-memory",
		Long: `Run a scenario file against an in-memory world: shops, balances and
inventories are created from the file, then each step attempts a trade
and reports its outcome. No data files are touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

// simContainers maps shop chests and actor inventories for a scenario.
type simContainers struct {
	chests map[string]*container.Inventory
	actors map[uuid.UUID]*container.Inventory
}

func (c *simContainers) ForShop(pos world.Position) (container.Service, bool) {
	inv, ok := c.chests[pos.Key()]
	return inv, ok
}

func (c *simContainers) ForActor(id uuid.UUID) (container.Service, bool) {
	inv, ok := c.actors[id]
	return inv, ok
}

func runSimulate(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd)
	log := newLogger(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		_ = formatter.Error(ErrCodeBadScenario, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(sc.Steps) == 0 {
		msg := "scenario has no steps"
		_ = formatter.Error(ErrCodeBadScenario, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	// Players are assigned stable ids in order of first mention.
	ids := make(map[string]uuid.UUID)
	playerID := func(name string) uuid.UUID {
		if id, ok := ids[name]; ok {
			return id
		}
		id := uuid.Must(uuid.NewV7())
		ids[name] = id
		return id
	}

	ledger := econ.NewMemoryLedger()
	for name, bal := range sc.Balances {
		ledger.SetBalance(playerID(name), bal)
	}

	reg := shop.NewRegistry()
	containers := &simContainers{
		chests: make(map[string]*container.Inventory),
		actors: make(map[uuid.UUID]*container.Inventory),
	}

	// Shops are placed through the real creation flow, so a scenario
	// exercises the same conflict checks and line grammar as a live sign.
	prober := world.NewStaticProber()
	flow := creation.NewFlow(reg, ledger, prober, creation.OpenCapability{},
		holo.Detect(log), creation.Policy{StrictPrices: true}, log)

	for i, def := range sc.Shops {
		signPos, err := world.ParseKey(def.Sign)
		if err != nil {
			_ = formatter.Error(ErrCodeBadScenario, fmt.Sprintf("shop %d: %v", i, err), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		chestPos := world.Position{World: signPos.World, X: signPos.X, Y: signPos.Y - 1, Z: signPos.Z}
		if def.Chest != "" {
			if chestPos, err = world.ParseKey(def.Chest); err != nil {
				_ = formatter.Error(ErrCodeBadScenario, fmt.Sprintf("shop %d: %v", i, err), nil)
				return NewExitError(ExitCommandError, err.Error())
			}
		}
		prober.AddSign(signPos)
		prober.AddContainer(chestPos)

		amount := def.Amount
		if amount == 0 {
			amount = 1
		}
		s, err := flow.Create(creation.Request{
			ActorID:   playerID(def.Owner),
			ActorName: def.Owner,
			SignPos:   signPos,
			ChestPos:  chestPos,
			PriceLine: priceLine(def.BuyPrice, def.SellPrice),
			ItemLine:  fmt.Sprintf("%d %s", amount, def.Item),
		})
		if err != nil {
			_ = formatter.Error(ErrCodeBadScenario, fmt.Sprintf("shop %d: %v", i, err), nil)
			return NewExitError(ExitCommandError, err.Error())
		}

		chest := container.NewInventory(27)
		if def.Stock > 0 {
			chest.Deposit([]container.Stack{{Item: s.Item(), Count: def.Stock}})
		}
		containers.chests[chestPos.Key()] = chest
	}

	eng := engine.New(reg, ledger, containers, engine.OpenAccess{},
		engine.WithTax(sc.Tax),
		engine.WithLogger(log),
	)

	report := SimulationReport{Balances: make(map[string]float64)}
	for i, step := range sc.Steps {
		actor := playerID(step.Actor)
		if _, ok := containers.actors[actor]; !ok {
			containers.actors[actor] = container.NewInventory(36)
		}

		signPos, err := world.ParseKey(step.Shop)
		if err != nil {
			_ = formatter.Error(ErrCodeBadScenario, fmt.Sprintf("step %d: %v", i, err), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		dir := engine.Buy
		if step.Action == "sell" {
			dir = engine.Sell
		}
		if step.Give > 0 {
			if s, ok := reg.LookupBySign(signPos); ok {
				containers.actors[actor].Deposit([]container.Stack{{Item: s.Item(), Count: step.Give}})
			}
		}

		// Scenario steps are scripted, not rapid clicks; reset the
		// per-actor cooldown so consecutive steps are not rejected.
		eng.ActorLeft(actor)
		out := eng.Attempt(cmd.Context(), actor, signPos, dir)
		res := StepResult{
			Step:      i + 1,
			Actor:     step.Actor,
			Action:    dir.String(),
			Shop:      step.Shop,
			Committed: out.Committed,
			Code:      string(out.Code),
			Reason:    out.Reason,
			Gross:     out.Gross,
			Tax:       out.Tax,
			Net:       out.Net,
		}
		if !out.Committed {
			report.Failed++
		}
		report.Steps = append(report.Steps, res)
	}
	for name, id := range ids {
		report.Balances[name] = ledger.Balance(id)
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		for _, r := range report.Steps {
			if r.Committed {
				fmt.Fprintf(formatter.Writer, "step %d: %s %s at %s: ok (gross %.2f tax %.2f net %.2f)\n",
					r.Step, r.Actor, r.Action, r.Shop, r.Gross, r.Tax, r.Net)
			} else {
				fmt.Fprintf(formatter.Writer, "step %d: %s %s at %s: %s (%s)\n",
					r.Step, r.Actor, r.Action, r.Shop, r.Code, r.Reason)
			}
		}
		fmt.Fprintf(formatter.Writer, "%d step(s), %d failed\n", len(report.Steps), report.Failed)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d step(s) failed", report.Failed))
	}
	return nil
}

// priceLine renders scenario prices in the sign grammar.
func priceLine(buy, sell float64) string {
	switch {
	case buy > 0 && sell > 0:
		return "B " + sign.FormatPrice(buy) + " : S " + sign.FormatPrice(sell)
	case buy > 0:
		return "B " + sign.FormatPrice(buy)
	case sell > 0:
		return "S " + sign.FormatPrice(sell)
	default:
		return ""
	}
}
