package engine

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	cacheKeyMerchants  = "merchants"
	cacheKeyCategories = "categories"
)

// Registry maintains the dynamic vocabulary: known merchants and categories,
// built by merging the static base tables with values discovered in the
// store. Lookups hit a TTL cache; a stale read triggers a full recompute.
// Recomputation is idempotent, so concurrent refreshes are harmless.
type Registry struct {
	db    *sql.DB
	vocab *Vocabulary
	cache *cache.Cache
	log   *zap.Logger
}

// NewRegistry builds a registry over db with the given cache TTL.
func NewRegistry(db *sql.DB, vocab *Vocabulary, ttl time.Duration, log *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{
		db:    db,
		vocab: vocab,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// Merchants returns the known merchant names, lowercase, sorted longest-first
// so substring scans find the most specific name before any prefix of it.
func (r *Registry) Merchants(ctx context.Context) []string {
	if v, ok := r.cache.Get(cacheKeyMerchants); ok {
		return v.([]string)
	}
	merchants := r.refreshMerchants(ctx)
	r.cache.Set(cacheKeyMerchants, merchants, cache.DefaultExpiration)
	return merchants
}

// Categories returns the known category names, lowercase.
func (r *Registry) Categories(ctx context.Context) []string {
	if v, ok := r.cache.Get(cacheKeyCategories); ok {
		return v.([]string)
	}
	categories := r.refreshCategories(ctx)
	r.cache.Set(cacheKeyCategories, categories, cache.DefaultExpiration)
	return categories
}

// Invalidate drops both caches. The next accessor call recomputes.
func (r *Registry) Invalidate() {
	r.cache.Delete(cacheKeyMerchants)
	r.cache.Delete(cacheKeyCategories)
}

// ResolveCategory maps a raw user word to a canonical category, or "" if the
// word does not resolve. Resolution order: exact canonical, exact synonym,
// canonical prefix, synonym prefix. Callers must not guess beyond this.
func (r *Registry) ResolveCategory(input string) string {
	w := strings.ToLower(strings.TrimSpace(input))
	if w == "" {
		return ""
	}
	for _, c := range r.vocab.CanonicalCategories {
		if w == c {
			return c
		}
	}
	if c, ok := r.vocab.CategorySynonyms[w]; ok {
		return c
	}
	if len(w) < 3 {
		return ""
	}
	for _, c := range r.vocab.CanonicalCategories {
		if strings.HasPrefix(c, w) {
			return c
		}
	}
	// deterministic prefix match over synonym keys
	keys := make([]string, 0, len(r.vocab.CategorySynonyms))
	for k := range r.vocab.CategorySynonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(k, w) {
			return r.vocab.CategorySynonyms[k]
		}
	}
	return ""
}

func (r *Registry) refreshMerchants(ctx context.Context) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		// Collapse near-duplicate spellings discovered in the store
		// ("bigbasket" vs "bigbaskett") onto the name seen first. Short
		// names are exempt: one edit on a 4-letter name is a different word.
		if len(name) >= 6 {
			for existing := range seen {
				if len(existing) >= 6 && levenshtein.ComputeDistance(name, existing) <= 1 {
					return
				}
			}
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, m := range r.vocab.BaseMerchants {
		add(m)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT LOWER(merchant) FROM transactions WHERE merchant IS NOT NULL AND merchant != ''`)
	if err != nil {
		r.log.Warn("merchant scan failed", zap.Error(err))
	} else {
		defer rows.Close()
		for rows.Next() {
			var m string
			if err := rows.Scan(&m); err == nil {
				add(m)
			}
		}
		if err := rows.Err(); err != nil {
			r.log.Warn("merchant scan failed", zap.Error(err))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func (r *Registry) refreshCategories(ctx context.Context) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	for _, c := range r.vocab.CanonicalCategories {
		add(c)
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT DISTINCT LOWER(category) FROM transactions WHERE category IS NOT NULL AND category != ''
	UNION
	SELECT DISTINCT LOWER(category) FROM spend_log WHERE category IS NOT NULL AND category != ''`)
	if err != nil {
		r.log.Warn("category scan failed", zap.Error(err))
	} else {
		defer rows.Close()
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err == nil {
				add(c)
			}
		}
		if err := rows.Err(); err != nil {
			r.log.Warn("category scan failed", zap.Error(err))
		}
	}

	sort.Strings(out)
	return out
}
