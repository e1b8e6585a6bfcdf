package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
)

const (
	keyLevel      = "lungIQ-level"
	keyCompleted  = "lungIQ-completed"
	keyDevUnlock  = "lungIQ-konami"
	keyDisclaimer = "lungIQ-disclaimer-accepted"

	devUnlocked = "unlocked"
)

// Progress is one learner's saved state.
type Progress struct {
	LevelKey           string   `json:"levelKey"`
	Completed          []string `json:"completed"`
	DevUnlocked        bool     `json:"devUnlocked"`
	DisclaimerAccepted bool     `json:"disclaimerAccepted"`
}

func (p Progress) IsCompleted(id string) bool {
	for _, c := range p.Completed {
		if c == id {
			return true
		}
	}
	return false
}

// Tracker reads and writes learner progress against the scenario catalogue.
type Tracker struct {
	store   Store
	catalog *scenario.Catalog
}

func NewTracker(store Store, catalog *scenario.Catalog) *Tracker {
	return &Tracker{store: store, catalog: catalog}
}

func key(learner, name string) string {
	if learner == "" {
		return name
	}
	return learner + ":" + name
}

func (t *Tracker) get(ctx context.Context, learner, name string) (string, bool, error) {
	v, err := t.store.Get(ctx, key(learner, name))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}
	return v, true, nil
}

// Load returns the learner's progress. A learner with nothing saved starts
// on the first path. A corrupt completion list reads as empty.
func (t *Tracker) Load(ctx context.Context, learner string) (Progress, error) {
	p := Progress{LevelKey: t.catalog.FirstKey(), Completed: []string{}}

	level, ok, err := t.get(ctx, learner, keyLevel)
	if err != nil {
		return p, err
	}
	if ok && level != "" {
		if _, perr := t.catalog.Path(level); perr == nil {
			p.LevelKey = level
		}
	}

	raw, ok, err := t.get(ctx, learner, keyCompleted)
	if err != nil {
		return p, err
	}
	if ok {
		var ids []string
		if json.Unmarshal([]byte(raw), &ids) == nil && ids != nil {
			p.Completed = ids
		}
	}

	dev, _, err := t.get(ctx, learner, keyDevUnlock)
	if err != nil {
		return p, err
	}
	if dev == devUnlocked {
		p.DevUnlocked = true
		p.Completed = t.catalog.AllScenarioIDs()
	}

	disc, _, err := t.get(ctx, learner, keyDisclaimer)
	if err != nil {
		return p, err
	}
	p.DisclaimerAccepted = disc == "true"
	return p, nil
}

func (t *Tracker) saveCompleted(ctx context.Context, learner string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, key(learner, keyCompleted), string(data)); err != nil {
		return fmt.Errorf("write completed: %w", err)
	}
	return nil
}

// Complete marks a scenario done. Completing it twice is a no-op.
func (t *Tracker) Complete(ctx context.Context, learner, scenarioID string) (Progress, error) {
	if _, err := t.catalog.Scenario(scenarioID); err != nil {
		return Progress{}, err
	}
	p, err := t.Load(ctx, learner)
	if err != nil {
		return p, err
	}
	if p.IsCompleted(scenarioID) {
		return p, nil
	}
	p.Completed = append(p.Completed, scenarioID)
	return p, t.saveCompleted(ctx, learner, p.Completed)
}

// SetLevel selects the current path. Locked paths are refused.
func (t *Tracker) SetLevel(ctx context.Context, learner, pathKey string) (Progress, error) {
	p, err := t.Load(ctx, learner)
	if err != nil {
		return p, err
	}
	unlocked, err := t.unlocked(p, pathKey)
	if err != nil {
		return p, err
	}
	if !unlocked {
		return p, fmt.Errorf("path %q is locked", pathKey)
	}
	if err := t.store.Set(ctx, key(learner, keyLevel), pathKey); err != nil {
		return p, fmt.Errorf("write level: %w", err)
	}
	p.LevelKey = pathKey
	return p, nil
}

// UnlockAll sets the developer flag, which completes every scenario.
func (t *Tracker) UnlockAll(ctx context.Context, learner string) (Progress, error) {
	if err := t.store.Set(ctx, key(learner, keyDevUnlock), devUnlocked); err != nil {
		return Progress{}, fmt.Errorf("write unlock: %w", err)
	}
	if err := t.saveCompleted(ctx, learner, t.catalog.AllScenarioIDs()); err != nil {
		return Progress{}, err
	}
	return t.Load(ctx, learner)
}

func (t *Tracker) AcceptDisclaimer(ctx context.Context, learner string) error {
	if err := t.store.Set(ctx, key(learner, keyDisclaimer), "true"); err != nil {
		return fmt.Errorf("write disclaimer: %w", err)
	}
	return nil
}

// Reset clears every saved key for the learner.
func (t *Tracker) Reset(ctx context.Context, learner string) error {
	err := t.store.Delete(ctx,
		key(learner, keyLevel),
		key(learner, keyCompleted),
		key(learner, keyDevUnlock),
		key(learner, keyDisclaimer),
	)
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// PathUnlocked reports whether the learner may open pathKey.
func (t *Tracker) PathUnlocked(ctx context.Context, learner, pathKey string) (bool, error) {
	p, err := t.Load(ctx, learner)
	if err != nil {
		return false, err
	}
	return t.unlocked(p, pathKey)
}

func (t *Tracker) unlocked(p Progress, pathKey string) (bool, error) {
	if _, err := t.catalog.Path(pathKey); err != nil {
		return false, err
	}
	if p.DevUnlocked {
		return true, nil
	}
	prev, ok := t.catalog.Previous(pathKey)
	if !ok {
		return true, nil
	}
	for _, id := range prev.IDs() {
		if !p.IsCompleted(id) {
			return false, nil
		}
	}
	return true, nil
}
