package engine

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Domain is the data category a question is about.
type Domain string

const (
	DomainMoney         Domain = "money"
	DomainSubscriptions Domain = "subscriptions"
	DomainEmail         Domain = "email"
	DomainTasks         Domain = "tasks"
	DomainFocus         Domain = "focus"
	DomainHabits        Domain = "habits"
	DomainCalendar      Domain = "calendar"
	DomainStats         Domain = "stats"
	DomainNone          Domain = "none"
)

// Action is the operation requested within a domain.
type Action string

const (
	ActionList      Action = "list"
	ActionSummary   Action = "summary"
	ActionTotal     Action = "total"
	ActionCompare   Action = "compare"
	ActionLast      Action = "last"
	ActionCount     Action = "count"
	ActionSearch    Action = "search"
	ActionBreakdown Action = "breakdown"
	ActionTrend     Action = "trend"
)

// Params carries everything the extractor pulled out of one message.
// Merchant and Category are always canonical vocabulary entries, never raw
// user tokens; resolution happens here and nowhere downstream.
type Params struct {
	Merchant    string
	Merchants   []string
	Category    string
	Categories  []string
	CardQuery   bool
	MultiPeriod []Period
	TimeRange   *TimeRange
	Limit       int // 0 = unset
	Comparison  bool
	SearchTerm  string
	Raw         string
}

// Intent is the structured result of parsing one user message. It is built
// fresh per message and carries no state across calls.
type Intent struct {
	Domain Domain
	Action Action
	Params Params
}

var (
	vsRe          = regexp.MustCompile(`(?i)\b(?:vs\.?|versus|against)\b`)
	categoryPrepRe = regexp.MustCompile(`(?i)\b(?:on|for|in|under|category)\s+([a-z]+)`)
	cardPhraseRe  = regexp.MustCompile(`(?i)(?:which|what)\s+(?:credit\s+|debit\s+)?card|\bpaid\b[^.?!]*\bcard\b`)
	limitRe       = regexp.MustCompile(`(?i)\b(?:top|last|recent|latest|first)\s+(\d+)\s*([a-z]*)`)
	singleLastRe  = regexp.MustCompile(`(?i)\b(?:last|latest|most\s+recent)\s+(?:order|transaction|purchase|payment|spend)\b`)
	comparisonRe  = regexp.MustCompile(`(?i)\b(?:compare[ds]?|comparison|vs\.?|versus|against)\b|\bthan\s+last\b|\bmonth\s+over\s+month\b`)
	multiPeriodRe = regexp.MustCompile(`(?i)\blast\s+(\d+)\s+(month|week)s?\b`)
	searchTermRe  = regexp.MustCompile(`(?i)\b(?:find|look\s+for|search(?:\s+for)?)\s+(.+)`)
)

var timeUnitWords = map[string]bool{
	"day": true, "days": true, "week": true, "weeks": true,
	"month": true, "months": true, "year": true, "years": true,
	"hour": true, "hours": true, "hr": true, "hrs": true,
	"min": true, "mins": true, "minute": true, "minutes": true,
}

// domainRule is one entry in the ordered domain inference chain. First match
// wins; apply (when set) lets a rule adjust params, e.g. the insurance rule
// pinning the category.
type domainRule struct {
	domain Domain
	match  func(text string, in *Intent) bool
	apply  func(in *Intent)
}

// actionRule is one entry in the ordered action inference chain.
type actionRule struct {
	action Action
	match  func(text string, in *Intent) bool
}

// Extractor turns raw text into a structured Intent using only the registry
// vocabulary and pattern tables. Deterministic, no side effects beyond
// reading the registry.
type Extractor struct {
	registry    *Registry
	vocab       *Vocabulary
	now         func() time.Time
	domainRules []domainRule
	actionRules []actionRule
}

// NewExtractor builds an extractor over the registry's vocabulary. The clock
// is injectable so tests can pin "now".
func NewExtractor(registry *Registry, vocab *Vocabulary, now func() time.Time) *Extractor {
	x := &Extractor{registry: registry, vocab: vocab, now: now}
	x.domainRules = buildDomainRules()
	x.actionRules = buildActionRules()
	return x
}

// Extract runs the extraction pipeline. Steps run in a fixed order because
// later steps use earlier results to disambiguate. Malformed input never
// fails; worst case the intent comes back with Domain none.
func (x *Extractor) Extract(ctx context.Context, text string) Intent {
	in := Intent{Domain: DomainNone, Action: ActionSummary, Params: Params{Raw: text}}
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return in
	}

	x.detectMerchants(ctx, t, &in)  // 1
	x.rawComparisonFallback(t, &in) // 2
	x.detectCategory(t, &in)        // 3
	x.detectMultiCategory(t, &in)   // 4
	x.detectCardQuery(t, &in)       // 5
	if tr := ParseTimeRange(x.now(), t); tr != nil { // 6
		in.Params.TimeRange = tr
	}
	x.extractLimit(t, &in) // 7
	if comparisonRe.MatchString(t) { // 8
		in.Params.Comparison = true
	}
	x.detectMultiPeriod(t, &in) // 9

	in.Domain = x.inferDomain(t, &in) // 10
	in.Action = x.inferAction(t, &in) // 11

	if in.Action == ActionSearch && in.Params.SearchTerm == "" {
		if m := searchTermRe.FindStringSubmatch(t); m != nil {
			in.Params.SearchTerm = strings.TrimRight(strings.TrimSpace(m[1]), "?.!")
		}
	}
	return in
}

// step 1: longest-match-wins scan of the merchant vocabulary.
func (x *Extractor) detectMerchants(ctx context.Context, t string, in *Intent) {
	for _, m := range x.registry.Merchants(ctx) {
		if containsWord(t, m) {
			in.Params.Merchants = append(in.Params.Merchants, m)
		}
	}
	if len(in.Params.Merchants) > 0 {
		in.Params.Merchant = in.Params.Merchants[0]
	}
	if len(in.Params.Merchants) >= 2 {
		in.Params.Comparison = true
	}
}

// step 2: raw "A vs B" fallback for merchants the vocabulary has never seen.
// Both operands go through category resolution first; only if that fails are
// they kept as unmatched merchant candidates so the handler can report "no
// data" instead of mis-routing.
func (x *Extractor) rawComparisonFallback(t string, in *Intent) {
	if len(in.Params.Merchants) >= 2 || !vsRe.MatchString(t) {
		return
	}
	parts := vsRe.Split(t, 2)
	if len(parts) != 2 {
		return
	}
	left := x.stripComparisonNoise(parts[0])
	right := x.stripComparisonNoise(parts[1])
	if left == "" || right == "" {
		return
	}

	lc := x.registry.ResolveCategory(left)
	rc := x.registry.ResolveCategory(right)
	if lc != "" && rc != "" && lc != rc {
		in.Params.Categories = []string{lc, rc}
		in.Params.Comparison = true
		return
	}

	for _, cand := range []string{left, right} {
		dup := false
		for _, m := range in.Params.Merchants {
			if m == cand {
				dup = true
				break
			}
		}
		if !dup {
			in.Params.Merchants = append(in.Params.Merchants, cand)
		}
	}
	if in.Params.Merchant == "" && len(in.Params.Merchants) > 0 {
		in.Params.Merchant = in.Params.Merchants[0]
	}
	if len(in.Params.Merchants) >= 2 {
		in.Params.Comparison = true
	}
}

// stripComparisonNoise removes stop words and punctuation from one side of a
// comparison phrase, keeping only candidate entity words.
func (x *Extractor) stripComparisonNoise(side string) string {
	var kept []string
	for _, w := range strings.FieldsFunc(side, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		stop := false
		for _, s := range x.vocab.ComparisonStopWords {
			if w == s {
				stop = true
				break
			}
		}
		if !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// step 3: primary category.
func (x *Extractor) detectCategory(t string, in *Intent) {
	if len(in.Params.Categories) > 0 {
		in.Params.Category = in.Params.Categories[0]
		return
	}

	// "on/for/in/under/category <word>"
	if m := categoryPrepRe.FindStringSubmatch(t); m != nil {
		if c := x.registry.ResolveCategory(m[1]); c != "" {
			in.Params.Category = c
			return
		}
	}

	// canonical category word in a spending context
	if x.vocab.SpendContext(t) {
		for _, c := range x.vocab.CanonicalCategories {
			if containsWord(t, c) {
				in.Params.Category = c
				return
			}
		}
	}

	// synonym word, either in a spending context or inherently unambiguous
	for _, k := range sortedSynonymKeys(x.vocab) {
		if !containsWord(t, k) {
			continue
		}
		if x.vocab.SpendContext(t) || x.isUnambiguous(k) {
			in.Params.Category = x.vocab.CategorySynonyms[k]
			return
		}
	}
}

func (x *Extractor) isUnambiguous(syn string) bool {
	for _, u := range x.vocab.UnambiguousSynonyms {
		if syn == u {
			return true
		}
	}
	return false
}

// step 4: independent scan for every canonical category and synonym, in text
// order. Two or more distinct canonicals make it a comparison.
func (x *Extractor) detectMultiCategory(t string, in *Intent) {
	type hit struct {
		canonical string
		pos       int
	}
	var hits []hit
	seen := map[string]bool{}
	record := func(canonical string, pos int) {
		if pos < 0 || seen[canonical] {
			return
		}
		seen[canonical] = true
		hits = append(hits, hit{canonical: canonical, pos: pos})
	}
	for _, c := range x.vocab.CanonicalCategories {
		record(c, indexWord(t, c))
	}
	for _, k := range sortedSynonymKeys(x.vocab) {
		if p := indexWord(t, k); p >= 0 {
			record(x.vocab.CategorySynonyms[k], p)
		}
	}
	if len(hits) < 2 {
		return
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	cats := make([]string, len(hits))
	for i, h := range hits {
		cats[i] = h.canonical
	}
	in.Params.Categories = cats
	in.Params.Comparison = true
}

// step 5: payment-method grouping.
func (x *Extractor) detectCardQuery(t string, in *Intent) {
	if cardPhraseRe.MatchString(t) {
		in.Params.CardQuery = true
		return
	}
	for _, b := range x.vocab.BankTokens {
		if containsWord(t, b) {
			in.Params.CardQuery = true
			return
		}
	}
}

// step 7: row limit. "last 3 months" is a time range, not a limit, so a
// number followed by a time unit is rejected.
func (x *Extractor) extractLimit(t string, in *Intent) {
	if m := limitRe.FindStringSubmatch(t); m != nil && !timeUnitWords[strings.ToLower(m[2])] {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			in.Params.Limit = n
		}
	}
	if in.Params.Limit == 0 && singleLastRe.MatchString(t) {
		in.Params.Limit = 1
	}
}

// step 9: "compare last N months" becomes N calendar-aligned windows, one
// per period, never a single flattened range.
func (x *Extractor) detectMultiPeriod(t string, in *Intent) {
	if !in.Params.Comparison {
		return
	}
	m := multiPeriodRe.FindStringSubmatch(t)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 2 || n > 12 {
		return
	}
	in.Params.MultiPeriod = BuildPeriods(x.now(), n, strings.ToLower(m[2]))
}

// step 10: ordered domain rules, first match wins.
func (x *Extractor) inferDomain(t string, in *Intent) Domain {
	for _, r := range x.domainRules {
		if r.match(t, in) {
			if r.apply != nil {
				r.apply(in)
			}
			return r.domain
		}
	}
	if in.Params.Merchant != "" || in.Params.Category != "" || in.Params.Comparison {
		return DomainMoney
	}
	return DomainNone
}

// step 11: ordered action rules, first match wins.
func (x *Extractor) inferAction(t string, in *Intent) Action {
	for _, r := range x.actionRules {
		if r.match(t, in) {
			return r.action
		}
	}
	return ActionSummary
}

func buildDomainRules() []domainRule {
	re := func(pattern string) *regexp.Regexp { return regexp.MustCompile("(?i)" + pattern) }

	subscriptionsRe := re(`subscription|recurring|renew|auto.?pay|auto.?debit|membership`)
	insuranceRe := re(`insurance|premium|policy`)
	emailRe := re(`\bemails?\b|\bmail\b|inbox|unread|sender`)
	tasksRe := re(`\btasks?\b|reminder|todo|to-do|overdue|\bdue\b`)
	focusRe := re(`\bfocus\b|deep\s+work|pomodoro`)
	habitsRe := re(`habit|streak|routine`)
	calendarRe := re(`calendar|meeting|\bevents?\b|schedule|agenda|appointment`)
	moneyRe := re(`spend|spent|expense|cost|paid|bought|purchase|transaction|money|budget|payment|balance|\bcard\b|price`)
	statsRe := re(`\bstats\b|statistics|overview|dashboard|\breport\b|\bsummary\b`)

	return []domainRule{
		{domain: DomainSubscriptions, match: func(t string, _ *Intent) bool { return subscriptionsRe.MatchString(t) }},
		// "insurance" questions route to money with the category pinned.
		// Questions about literal insurance *policies* vs *payments* are not
		// disambiguated; this ordering is a fixed heuristic.
		{
			domain: DomainMoney,
			match:  func(t string, _ *Intent) bool { return insuranceRe.MatchString(t) },
			apply: func(in *Intent) {
				if in.Params.Category == "" {
					in.Params.Category = "insurance"
				}
			},
		},
		{domain: DomainEmail, match: func(t string, _ *Intent) bool { return emailRe.MatchString(t) }},
		{domain: DomainTasks, match: func(t string, _ *Intent) bool { return tasksRe.MatchString(t) }},
		{domain: DomainFocus, match: func(t string, _ *Intent) bool { return focusRe.MatchString(t) }},
		{domain: DomainHabits, match: func(t string, _ *Intent) bool { return habitsRe.MatchString(t) }},
		{domain: DomainCalendar, match: func(t string, _ *Intent) bool { return calendarRe.MatchString(t) }},
		{domain: DomainMoney, match: func(t string, _ *Intent) bool { return moneyRe.MatchString(t) }},
		// a bare merchant or category name implies money, not cross-domain stats
		{domain: DomainStats, match: func(t string, in *Intent) bool {
			return statsRe.MatchString(t) && in.Params.Merchant == "" &&
				in.Params.Category == "" && len(in.Params.Categories) == 0
		}},
	}
}

func buildActionRules() []actionRule {
	re := func(pattern string) *regexp.Regexp { return regexp.MustCompile("(?i)" + pattern) }

	totalRe := re(`how\s+much|\btotal\b|\bsum\b|altogether|\bamount\b`)
	breakdownRe := re(`classif|categori[sz]e|category\s+wise|group\s+by|break\s*down|by\s+category`)
	lastRe := re(`most\s+recent|\blast\s+(?:order|transaction|purchase|payment|spend)\b|\blatest\b`)
	trendRe := re(`\btrend\b|pattern|over\s+time|growing|increasing|decreasing`)
	countRe := re(`how\s+many|count\s+of|number\s+of`)
	summaryRe := re(`\bsummary\b|overview|\breport\b|\bstats\b`)
	listRe := re(`\bshow\b|\bdisplay\b|\blist\b|all\s+my|\btop\s+\d+\b`)
	searchRe := re(`\bfind\b|look\s+for|\bsearch\b`)

	return []actionRule{
		{action: ActionCompare, match: func(_ string, in *Intent) bool { return in.Params.Comparison }},
		{action: ActionTotal, match: func(t string, _ *Intent) bool { return totalRe.MatchString(t) }},
		{action: ActionBreakdown, match: func(t string, _ *Intent) bool { return breakdownRe.MatchString(t) }},
		{action: ActionLast, match: func(t string, _ *Intent) bool { return lastRe.MatchString(t) }},
		{action: ActionTrend, match: func(t string, _ *Intent) bool { return trendRe.MatchString(t) }},
		{action: ActionCount, match: func(t string, _ *Intent) bool { return countRe.MatchString(t) }},
		{action: ActionSummary, match: func(t string, _ *Intent) bool { return summaryRe.MatchString(t) }},
		{action: ActionList, match: func(t string, in *Intent) bool { return listRe.MatchString(t) || in.Params.Limit > 1 }},
		{action: ActionSearch, match: func(t string, _ *Intent) bool { return searchRe.MatchString(t) }},
	}
}

func sortedSynonymKeys(v *Vocabulary) []string {
	keys := make([]string, 0, len(v.CategorySynonyms))
	for k := range v.CategorySynonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// containsWord reports whether w occurs in t bounded by non-word characters.
// w may contain spaces ("credit card").
func containsWord(t, w string) bool {
	return indexWord(t, w) >= 0
}

// indexWord returns the byte offset of the first word-bounded occurrence of
// w in t, or -1.
func indexWord(t, w string) int {
	if w == "" {
		return -1
	}
	for i := 0; i+len(w) <= len(t); {
		j := strings.Index(t[i:], w)
		if j < 0 {
			return -1
		}
		j += i
		before := j == 0 || !isWordChar(t[j-1])
		after := j+len(w) == len(t) || !isWordChar(t[j+len(w)])
		if before && after {
			return j
		}
		i = j + 1
	}
	return -1
}
