package relation

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/gobis-cli/gobis/internal/metadata"
	"github.com/gobis-cli/gobis/internal/openbis"
)

// Tier grades how strongly a candidate's stored properties agree with the
// extracted metadata. Ordering matters: higher tiers sort first.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Candidate is one ranked parent suggestion. The numeric score only breaks
// ties within a tier and is deliberately not exported.
type Candidate struct {
	Entry  openbis.CatalogEntry
	Tier   Tier
	Reason string

	score float64
}

// Policy holds the tunable matching thresholds. The tier boundaries are
// heuristics, so they are configuration rather than fixed constants.
type Policy struct {
	// MinTokenOverlap is how many tokens metadata and candidate text must
	// share before the candidate rates MEDIUM.
	MinTokenOverlap int
	// RecencyWindow bounds how far back LOW candidates reach.
	RecencyWindow time.Duration
	// MaxPerTier caps each tier in the final list.
	MaxPerTier int
	// SearchLimit bounds the candidate pool fetched per collection.
	SearchLimit int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinTokenOverlap: 2,
		RecencyWindow:   90 * 24 * time.Hour,
		MaxPerTier:      10,
		SearchLimit:     500,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MinTokenOverlap < 1 {
		p.MinTokenOverlap = d.MinTokenOverlap
	}
	if p.RecencyWindow <= 0 {
		p.RecencyWindow = d.RecencyWindow
	}
	if p.MaxPerTier < 1 {
		p.MaxPerTier = d.MaxPerTier
	}
	if p.SearchLimit < 1 {
		p.SearchLimit = d.SearchLimit
	}
	return p
}

// ParentCollection returns the collection whose datasets are plausible
// parents for records of the given kind: spectral libraries descend from the
// sequence databases they were predicted from, and databases from their
// earlier releases.
func ParentCollection(k metadata.Kind) string {
	switch k {
	case metadata.KindFasta, metadata.KindSpectralLibrary:
		return metadata.KindFasta.DefaultCollection()
	default:
		return ""
	}
}

// Matcher ranks candidate parent entries for extracted metadata. All remote
// lookups go through the relationship cache.
type Matcher struct {
	gw     openbis.Gateway
	cache  *Cache
	policy Policy
	log    *zap.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithPolicy overrides the default matching thresholds.
func WithPolicy(p Policy) MatcherOption {
	return func(m *Matcher) { m.policy = p.normalized() }
}

// WithMatcherLogger routes scoring debug logging.
func WithMatcherLogger(log *zap.Logger) MatcherOption {
	return func(m *Matcher) {
		if log != nil {
			m.log = log
		}
	}
}

// NewMatcher creates a matcher reading through cache to gw.
func NewMatcher(gw openbis.Gateway, cache *Cache, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		gw:     gw,
		cache:  cache,
		policy: DefaultPolicy(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SuggestParents returns ranked parent candidates for rec among the datasets
// of collection, ordered HIGH before MEDIUM before LOW and deterministically
// within each tier. An empty collection falls back to the default parent
// collection for the record's kind. The whole candidate pool is fetched in
// one batched, cached round trip; an empty or LOW-only result is a normal
// outcome, not an error.
func (m *Matcher) SuggestParents(ctx context.Context, rec metadata.Record, collection string) ([]Candidate, error) {
	if rec == nil {
		return nil, nil
	}
	if collection == "" {
		collection = ParentCollection(rec.Kind())
	}
	if collection == "" {
		return nil, nil
	}

	sig := signalsFrom(rec)

	fp := NewFingerprint("collection-datasets", collection, map[string]string{
		"type":  string(openbis.TypeDataset),
		"limit": strconv.Itoa(m.policy.SearchLimit),
	})
	pool, stats, err := m.cache.GetOrFetch(ctx, fp, func(ctx context.Context) ([]openbis.CatalogEntry, error) {
		return m.gw.SearchByProperty(ctx, openbis.TypeDataset, "", "", openbis.Filters{
			Collection: collection,
			Limit:      m.policy.SearchLimit,
		})
	})
	if err != nil {
		return nil, err
	}
	m.log.Debug("candidate pool resolved",
		zap.String("collection", collection),
		zap.Int("entries", len(pool)),
		zap.Bool("cached", stats.FromCache),
		zap.Duration("elapsed", stats.Elapsed))

	// One clock reading for the whole pool keeps recency scores comparable.
	now := time.Now()
	seen := map[string]bool{}
	var ranked []Candidate
	for _, e := range pool {
		if e.Type != openbis.TypeDataset || e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if cand, ok := m.grade(sig, e, now); ok {
			ranked = append(ranked, cand)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Tier != ranked[j].Tier {
			return ranked[i].Tier > ranked[j].Tier
		}
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].Entry.ID < ranked[j].Entry.ID
	})
	return capPerTier(ranked, m.policy.MaxPerTier), nil
}

// grade assigns e its strongest applicable tier, or reports false when even
// LOW does not apply.
func (m *Matcher) grade(sig signals, e openbis.CatalogEntry, now time.Time) (Candidate, bool) {
	if sig.sourceFile != "" && sig.sourceFile == e.Property("filename") {
		return Candidate{
			Entry: e, Tier: TierHigh,
			Reason: "source file matches " + sig.sourceFile,
			score:  2,
		}, true
	}
	if sig.version != "" && sig.version == e.Property("version") {
		return Candidate{
			Entry: e, Tier: TierHigh,
			Reason: "version matches " + sig.version,
			score:  1.5,
		}, true
	}
	if shared := overlap(sig.tokens, entryTokens(e)); len(shared) >= m.policy.MinTokenOverlap {
		return Candidate{
			Entry: e, Tier: TierMedium,
			Reason: "shared terms: " + strings.Join(shared, ", "),
			score:  float64(len(shared)),
		}, true
	}
	if age := now.Sub(e.Registered); !e.Registered.IsZero() && age < m.policy.RecencyWindow {
		return Candidate{
			Entry: e, Tier: TierLow,
			Reason: "same collection, registered " + humanize.Time(e.Registered),
			score:  1 - age.Seconds()/m.policy.RecencyWindow.Seconds(),
		}, true
	}
	return Candidate{}, false
}

func capPerTier(ranked []Candidate, max int) []Candidate {
	counts := map[Tier]int{}
	out := ranked[:0]
	for _, c := range ranked {
		if counts[c.Tier] >= max {
			continue
		}
		counts[c.Tier]++
		out = append(out, c)
	}
	return out
}

// signals is the comparable surface of a metadata record.
type signals struct {
	sourceFile string
	version    string
	tokens     map[string]bool
}

func signalsFrom(rec metadata.Record) signals {
	sig := signals{tokens: map[string]bool{}}
	switch m := rec.(type) {
	case metadata.FastaMetadata:
		sig.version = m.Version
		addTokens(sig.tokens, m.Version)
		addTokens(sig.tokens, m.PrimarySpecies)
		for _, sc := range m.SpeciesBreakdown {
			addTokens(sig.tokens, sc.Species)
		}
	case metadata.SpectralLibraryMetadata:
		sig.sourceFile = m.SourceFasta
		base := strings.TrimSuffix(m.SourceFasta, filepath.Ext(m.SourceFasta))
		addTokens(sig.tokens, base)
	}
	return sig
}

func entryTokens(e openbis.CatalogEntry) map[string]bool {
	tokens := map[string]bool{}
	for _, prop := range []string{"$name", "notes", "product.description", "version"} {
		addTokens(tokens, e.Property(prop))
	}
	return tokens
}

// addTokens lowercases s and collects its alphanumeric runs of two or more
// characters.
func addTokens(dst map[string]bool, s string) {
	s = strings.ToLower(s)
	start := -1
	for i, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 2 {
			dst[s[start:i]] = true
		}
		start = -1
	}
	if start >= 0 && len(s)-start >= 2 {
		dst[s[start:]] = true
	}
}

func overlap(a, b map[string]bool) []string {
	var shared []string
	for tok := range a {
		if b[tok] {
			shared = append(shared, tok)
		}
	}
	sort.Strings(shared)
	return shared
}
