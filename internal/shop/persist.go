package shop

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tradepost/internal/fsutil"
	"github.com/roach88/tradepost/internal/world"
)

// shopRecord is the on-disk tuple for one shop. Field names follow the
// historical shops.yml layout so existing files remain readable.
type shopRecord struct {
	OwnerUUID  string  `yaml:"owner-uuid"`
	OwnerName  string  `yaml:"owner-name"`
	SignWorld  string  `yaml:"sign-world"`
	SignX      int     `yaml:"sign-x"`
	SignY      int     `yaml:"sign-y"`
	SignZ      int     `yaml:"sign-z"`
	ChestWorld string  `yaml:"chest-world"`
	ChestX     int     `yaml:"chest-x"`
	ChestY     int     `yaml:"chest-y"`
	ChestZ     int     `yaml:"chest-z"`
	Item       string  `yaml:"item"`
	Amount     int     `yaml:"amount"`
	BuyPrice   float64 `yaml:"buy-price"`
	SellPrice  float64 `yaml:"sell-price"`
}

type shopsFile struct {
	Shops []shopRecord `yaml:"shops"`
}

// Persister saves and loads the registry's record set as a flat tuple list.
//
// Writes copy the previous file to a ".backup" suffix first, then replace
// the target atomically via temp file + rename. A failed write attempts to
// restore the backup; the in-memory state is never touched on failure.
type Persister struct {
	path     string
	maxPrice float64
	log      *slog.Logger
}

// NewPersister creates a persister writing to path. maxPrice bounds prices
// accepted on load; records beyond it are skipped as manually corrupted.
func NewPersister(path string, maxPrice float64, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.Default()
	}
	return &Persister{path: path, maxPrice: maxPrice, log: log}
}

// BackupPath returns the path of the pre-save backup file.
func (p *Persister) BackupPath() string { return p.path + ".backup" }

// Save serializes the given point-in-time snapshot and replaces the file
// on disk. The snapshot must be taken synchronously by the caller; Save
// itself may run off the hot path.
func (p *Persister) Save(snapshot []*Shop) error {
	doc := shopsFile{Shops: make([]shopRecord, 0, len(snapshot))}
	for _, s := range snapshot {
		doc.Shops = append(doc.Shops, shopRecord{
			OwnerUUID:  s.OwnerID().String(),
			OwnerName:  s.OwnerName(),
			SignWorld:  s.SignPos().World,
			SignX:      s.SignPos().X,
			SignY:      s.SignPos().Y,
			SignZ:      s.SignPos().Z,
			ChestWorld: s.ChestPos().World,
			ChestX:     s.ChestPos().X,
			ChestY:     s.ChestPos().Y,
			ChestZ:     s.ChestPos().Z,
			Item:       string(s.Item()),
			Amount:     s.Bundle(),
			BuyPrice:   s.BuyPrice(),
			SellPrice:  s.SellPrice(),
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal shops: %w", err)
	}

	// Best-effort backup of the current file before replacing it.
	if err := fsutil.CopyFile(p.path, p.BackupPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.log.Warn("shop backup failed", "path", p.BackupPath(), "error", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := fsutil.AtomicWrite(p.path, data); err != nil {
		// Operator-severity: the periodic saver keeps the dirty flag set
		// and retries; actors never see persistence failures.
		p.log.Error("failed to save shops", "path", p.path, "error", err)
		if restoreErr := fsutil.CopyFile(p.BackupPath(), p.path); restoreErr != nil && !errors.Is(restoreErr, os.ErrNotExist) {
			p.log.Error("failed to restore shops backup", "path", p.BackupPath(), "error", restoreErr)
		}
		return fmt.Errorf("save shops: %w", err)
	}
	return nil
}

// LoadResult summarizes a load: how many records were restored and how
// many were skipped as invalid or stale.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// Load reads the file and inserts every valid record into reg.
//
// Each record is validated independently: an unparsable owner id, a
// missing world, an invalid item token, or a vanished fixture skips that
// record with a warning and loading continues. Out-of-range amounts and
// negative prices are clamped the way the file format has always been
// repaired (amount to 1, price to 0) rather than dropping the record.
func (p *Persister) Load(reg *Registry, prober world.Prober) (LoadResult, error) {
	var res LoadResult

	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read shops file: %w", err)
	}

	var doc shopsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return res, fmt.Errorf("parse shops file: %w", err)
	}

	for i, rec := range doc.Shops {
		s, err := p.restore(rec, prober)
		if err != nil {
			p.log.Warn("skipping shop", "index", i, "error", err)
			res.Skipped++
			continue
		}
		if err := reg.Add(s); err != nil {
			p.log.Warn("skipping shop", "index", i, "error", err)
			res.Skipped++
			continue
		}
		res.Loaded++
	}

	if res.Skipped > 0 {
		p.log.Warn("skipped shops during load", "count", res.Skipped)
	}
	p.log.Info("loaded shops", "count", res.Loaded)

	// A load does not change what is durable on disk.
	reg.ClearDirty()
	return res, nil
}

func (p *Persister) restore(rec shopRecord, prober world.Prober) (*Shop, error) {
	if rec.OwnerUUID == "" {
		return nil, fmt.Errorf("missing owner-uuid")
	}
	ownerID, err := uuid.Parse(rec.OwnerUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner-uuid %q: %w", rec.OwnerUUID, err)
	}
	ownerName := rec.OwnerName
	if ownerName == "" {
		ownerName = "Unknown"
	}

	if rec.SignWorld == "" || rec.ChestWorld == "" {
		return nil, fmt.Errorf("missing world name")
	}
	if !prober.WorldExists(rec.SignWorld) {
		return nil, fmt.Errorf("world %q not found", rec.SignWorld)
	}
	if !prober.WorldExists(rec.ChestWorld) {
		return nil, fmt.Errorf("world %q not found", rec.ChestWorld)
	}

	signPos := world.Position{World: rec.SignWorld, X: rec.SignX, Y: rec.SignY, Z: rec.SignZ}
	chestPos := world.Position{World: rec.ChestWorld, X: rec.ChestX, Y: rec.ChestY, Z: rec.ChestZ}

	// Fixtures may have been removed externally while the process was down.
	if !prober.IsSign(signPos) {
		return nil, fmt.Errorf("sign no longer exists at %s", signPos)
	}
	if !prober.IsContainer(chestPos) {
		return nil, fmt.Errorf("container no longer exists at %s", chestPos)
	}

	item, err := world.NormalizeItem(rec.Item)
	if err != nil {
		return nil, fmt.Errorf("invalid item %q: %w", rec.Item, err)
	}

	amount := rec.Amount
	if amount < MinBundle || amount > MaxBundle {
		amount = 1
	}
	buy, sell := rec.BuyPrice, rec.SellPrice
	if buy < 0 {
		buy = 0
	}
	if sell < 0 {
		sell = 0
	}

	return New(ownerID, ownerName, signPos, chestPos, item, amount, buy, sell, p.maxPrice)
}
