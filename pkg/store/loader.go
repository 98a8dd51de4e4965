package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/opcmap/policymap/pkg/observability"
	"github.com/opcmap/policymap/pkg/record"
)

// Record kinds, as reported to logs and load hooks.
const (
	KindPolicies = "policies"
	KindParks    = "parks"
)

// Loader reads record collections from a data root.
// A Loader holds no state between calls and is safe for concurrent use.
type Loader struct {
	Root   string
	Logger *log.Logger
}

// NewLoader creates a loader for the data root. A nil logger falls back to
// log.Default().
func NewLoader(root string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{Root: root, Logger: logger}
}

// Load reads both collections into a new snapshot.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	h := sha256.New()

	policies, err := l.policies(ctx, h)
	if err != nil {
		return nil, err
	}
	parks, err := l.parks(ctx, h)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Policies:    policies,
		Parks:       parks,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
		LoadedAt:    time.Now(),
	}, nil
}

// Policies loads every valid policy, newest publish date first.
func (l *Loader) Policies(ctx context.Context) ([]record.Policy, error) {
	return l.policies(ctx, nil)
}

// Parks loads every valid park in file name order. A missing or unreadable
// parks directory yields an empty collection.
func (l *Loader) Parks(ctx context.Context) ([]record.Park, error) {
	return l.parks(ctx, nil)
}

func (l *Loader) policies(ctx context.Context, h hash.Hash) (policies []record.Policy, err error) {
	start := time.Now()
	hooks := observability.Load()
	hooks.OnLoadStart(ctx, KindPolicies)
	defer func() { hooks.OnLoadComplete(ctx, KindPolicies, len(policies), time.Since(start), err) }()

	files, err := walkPolicies(l.Root, func(rel string, err error) {
		l.skip(ctx, KindPolicies, rel, err)
	})
	if err != nil {
		return nil, err
	}

	policies, err = loadRecords(ctx, l, KindPolicies, files, h,
		func(p *record.Policy) string { return p.ID },
		func(p *record.Policy, src string) { p.Source = src },
	)
	if err != nil {
		return nil, err
	}
	SortPolicies(policies)

	l.Logger.Debug("Loaded records", "kind", KindPolicies, "count", len(policies), "files", len(files))
	return policies, nil
}

func (l *Loader) parks(ctx context.Context, h hash.Hash) (parks []record.Park, err error) {
	start := time.Now()
	hooks := observability.Load()
	hooks.OnLoadStart(ctx, KindParks)
	defer func() { hooks.OnLoadComplete(ctx, KindParks, len(parks), time.Since(start), err) }()

	files := walkParks(l.Root, func(rel string, err error) {
		l.skip(ctx, KindParks, rel, err)
	})

	parks, err = loadRecords(ctx, l, KindParks, files, h,
		func(p *record.Park) string { return p.ID },
		func(p *record.Park, src string) { p.Source = src },
	)
	if err != nil {
		return nil, err
	}
	if parks == nil {
		parks = []record.Park{}
	}

	l.Logger.Debug("Loaded records", "kind", KindParks, "count", len(parks), "files", len(files))
	return parks, nil
}

// loadRecords decodes files in order, skipping any that fail to read or
// parse, lack an id, or repeat an id already loaded. A record whose fields
// only mismatch their types is kept with those fields zeroed. Only context
// cancellation aborts the load.
func loadRecords[T any](
	ctx context.Context,
	l *Loader,
	kind string,
	files []dataFile,
	h hash.Hash,
	id func(*T) string,
	setSource func(*T, string),
) ([]T, error) {
	out := make([]T, 0, len(files))
	seen := make(map[string]string, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(f.Path)
		if err != nil {
			l.skip(ctx, kind, f.Rel, err)
			continue
		}
		if h != nil {
			fmt.Fprintf(h, "%s\x00%d\x00", f.Rel, len(data))
			h.Write(data)
		}

		var rec T
		err = record.Decode(data, &rec)
		mistyped := record.FieldErrors(err)
		if err != nil && mistyped == nil {
			l.skip(ctx, kind, f.Rel, err)
			continue
		}
		key := id(&rec)
		if key == "" {
			l.skip(ctx, kind, f.Rel, fmt.Errorf("missing id"))
			continue
		}
		if first, dup := seen[key]; dup {
			l.skip(ctx, kind, f.Rel, fmt.Errorf("duplicate id %q (first defined in %s)", key, first))
			continue
		}
		seen[key] = f.Rel
		if mistyped != nil {
			l.Logger.Warn("Record has mistyped fields", "kind", kind, "file", f.Rel, "errors", mistyped)
		}

		setSource(&rec, f.Rel)
		out = append(out, rec)
	}
	return out, nil
}

func (l *Loader) skip(ctx context.Context, kind, rel string, err error) {
	l.Logger.Warn("Skipping record file", "kind", kind, "file", rel, "err", err)
	observability.Load().OnRecordSkipped(ctx, kind, rel, err)
}

// SortPolicies orders policies by publish date, newest first. Equal or
// unparseable dates are ordered by id so the result does not depend on file
// system enumeration order.
func SortPolicies(policies []record.Policy) {
	sort.SliceStable(policies, func(i, j int) bool {
		a, b := &policies[i], &policies[j]
		switch {
		case a.PublishDate.After(b.PublishDate):
			return true
		case b.PublishDate.After(a.PublishDate):
			return false
		default:
			return a.ID < b.ID
		}
	})
}
