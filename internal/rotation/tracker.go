// Package rotation tracks credential age against per-risk rotation
// intervals. It owns the metadata sidecar next to the store file and
// never sees credential values, only key names and timestamps.
package rotation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/openclaw/credman/internal/classify"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/fsutil"
	"github.com/openclaw/credman/internal/logging"
)

// UpcomingWindowDays is how far ahead of the deadline a credential
// starts being reported as upcoming.
const UpcomingWindowDays = 14

// Record is the tracked state for one credential.
type Record struct {
	Created      time.Time     `json:"created"`
	LastRotated  time.Time     `json:"lastRotated"`
	RotationDays int           `json:"rotationDays"`
	Risk         classify.Tier `json:"risk"`
}

// State classifies a credential's position in its rotation cycle.
type State string

const (
	// StateOK means the credential is inside its interval with more
	// than the upcoming window remaining.
	StateOK State = "ok"
	// StateUpcoming means the deadline is inside the upcoming window.
	StateUpcoming State = "upcoming"
	// StateDue means the interval has elapsed. Age equal to the
	// interval counts as due; there is no separate overdue grace.
	StateDue State = "due"
	// StateUntracked means the key exists in the store but has no
	// rotation record yet.
	StateUntracked State = "untracked"
)

// KeyStatus is the rotation report line for one key.
type KeyStatus struct {
	Key          string
	Risk         classify.Tier
	RotationDays int
	LastRotated  time.Time
	AgeDays      int
	DaysLeft     int
	State        State
}

// Tracker reads and writes the rotation metadata file.
type Tracker struct {
	path   string
	logger *logging.Logger

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

// NewTracker returns a tracker over the given metadata path.
func NewTracker(path string, logger *logging.Logger) *Tracker {
	return &Tracker{path: path, logger: logger, now: time.Now}
}

// Load reads and validates the metadata file. A missing file is an
// empty map.
func (t *Tracker) Load() (map[string]Record, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.path, err)
	}
	if err := ValidateMeta(data); err != nil {
		return nil, err
	}

	records := map[string]Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", t.path, err, credmanerrors.ErrStoreCorrupt)
	}
	return records, nil
}

func (t *Tracker) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding rotation metadata: %w", err)
	}
	return fsutil.WriteFileAtomic(t.path, data, 0600)
}

// Init creates records for any listed key that has none, classifying
// its risk from the key name. Existing records keep their timestamps.
// It returns the keys it added.
func (t *Tracker) Init(keys []string) ([]string, error) {
	records, err := t.Load()
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	var added []string
	for _, key := range keys {
		if _, ok := records[key]; ok {
			continue
		}
		tier := classify.TierForKey(key)
		records[key] = Record{
			Created:      now,
			LastRotated:  now,
			RotationDays: tier.RotationDays(),
			Risk:         tier,
		}
		added = append(added, key)
	}

	if len(added) == 0 {
		return nil, nil
	}
	sort.Strings(added)
	if err := t.save(records); err != nil {
		return nil, err
	}
	t.logf("Tracking %d new key(s)", len(added))
	return added, nil
}

// Status reports every listed key in lexical order, then any orphaned
// records whose key is no longer in the store.
func (t *Tracker) Status(keys []string) ([]KeyStatus, []string, error) {
	records, err := t.Load()
	if err != nil {
		return nil, nil, err
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	now := t.now().UTC()
	var statuses []KeyStatus
	seen := map[string]bool{}
	for _, key := range sorted {
		seen[key] = true
		rec, ok := records[key]
		if !ok {
			statuses = append(statuses, KeyStatus{Key: key, State: StateUntracked})
			continue
		}
		age := int(now.Sub(rec.LastRotated).Hours() / 24)
		left := rec.RotationDays - age
		state := StateOK
		switch {
		case left <= 0:
			state = StateDue
		case left <= UpcomingWindowDays:
			state = StateUpcoming
		}
		statuses = append(statuses, KeyStatus{
			Key:          key,
			Risk:         rec.Risk,
			RotationDays: rec.RotationDays,
			LastRotated:  rec.LastRotated,
			AgeDays:      age,
			DaysLeft:     left,
			State:        state,
		})
	}

	var orphaned []string
	for key := range records {
		if !seen[key] {
			orphaned = append(orphaned, key)
		}
	}
	sort.Strings(orphaned)
	return statuses, orphaned, nil
}

// RecordRotation marks a key as rotated now.
func (t *Tracker) RecordRotation(key string) error {
	records, err := t.Load()
	if err != nil {
		return err
	}
	rec, ok := records[key]
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}
	rec.LastRotated = t.now().UTC()
	records[key] = rec
	if err := t.save(records); err != nil {
		return err
	}
	t.logf("Recorded rotation of %s", key)
	return nil
}

// Reclassify recomputes risk and interval for every record from its
// key name, keeping the timestamps. It returns the keys whose tier
// changed.
func (t *Tracker) Reclassify() ([]string, error) {
	records, err := t.Load()
	if err != nil {
		return nil, err
	}

	var changed []string
	for key, rec := range records {
		tier := classify.TierForKey(key)
		if rec.Risk == tier && rec.RotationDays == tier.RotationDays() {
			continue
		}
		rec.Risk = tier
		rec.RotationDays = tier.RotationDays()
		records[key] = rec
		changed = append(changed, key)
	}

	if len(changed) == 0 {
		return nil, nil
	}
	sort.Strings(changed)
	if err := t.save(records); err != nil {
		return nil, err
	}
	return changed, nil
}

// SetTier overrides one key's risk tier and interval, for cases the
// name-based classifier gets wrong.
func (t *Tracker) SetTier(key string, tier classify.Tier) error {
	records, err := t.Load()
	if err != nil {
		return err
	}
	rec, ok := records[key]
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}
	rec.Risk = tier
	rec.RotationDays = tier.RotationDays()
	records[key] = rec
	if err := t.save(records); err != nil {
		return err
	}
	t.logf("Set %s to tier %s (%d day interval)", key, tier, rec.RotationDays)
	return nil
}

// Forget drops the record for a key, used when the key leaves the
// store.
func (t *Tracker) Forget(key string) error {
	records, err := t.Load()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return t.save(records)
}

func (t *Tracker) logf(format string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Info(format, args...)
	}
}
