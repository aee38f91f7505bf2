package tax

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TaxClass is an upstream tax-class catalog entry.
type TaxClass struct {
	Slug string
	Name string
}

// TaxRateEntry is an upstream tax-rate table row.
type TaxRateEntry struct {
	Class   string
	Country string
	Label   string
	Percent decimal.Decimal
}

// CatalogFetcher retrieves the upstream tax catalog. Implemented by the
// commerce platform adapter.
type CatalogFetcher interface {
	FetchTaxClasses(ctx context.Context) ([]TaxClass, error)
	FetchTaxRates(ctx context.Context) ([]TaxRateEntry, error)
}

// jurisdiction whose rate rows win over generic ones when both exist
const preferredCountry = "FR"

// builtinRates seeds the cache so every common class resolves even when the
// upstream catalog is unreachable. Keys are pre-normalized.
var builtinRates = map[string]Rate{
	"":                  RateStandard,
	"standard":          RateStandard,
	"normal":            RateStandard,
	"taux-normal":       RateStandard,
	"tva-20":            RateStandard,
	"reduced":           RateIntermediate,
	"reduced-rate":      RateIntermediate,
	"reduit":            RateIntermediate,
	"taux-reduit":       RateIntermediate,
	"intermediaire":     RateIntermediate,
	"intermediate":      RateIntermediate,
	"tva-10":            RateIntermediate,
	"super-reduced":     RateSuperReduced,
	"super-reduit":      RateSuperReduced,
	"taux-super-reduit": RateSuperReduced,
	"tva-7":             RateSuperReduced,
	"zero":              RateZero,
	"zero-rate":         RateZero,
	"exonere":           RateZero,
	"exempt":            RateZero,
	"tva-0":             RateZero,
}

var separatorRe = regexp.MustCompile(`[\s_]+`)
var multiHyphenRe = regexp.MustCompile(`-{2,}`)
var numeralRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// RateCache resolves upstream tax-class strings to allowed rates. It is a
// derived, in-memory cache: defaults are populated at construction so a reader
// racing a rebuild still resolves, just possibly from the built-in table.
type RateCache struct {
	mu          sync.RWMutex
	rates       map[string]Rate
	defaultRate Rate

	fetcher CatalogFetcher
	logger  *zap.Logger
}

// NewRateCache creates a cache seeded with the built-in synonym table.
// fetcher may be nil, in which case Initialize keeps the built-ins only.
func NewRateCache(fetcher CatalogFetcher, logger *zap.Logger) *RateCache {
	c := &RateCache{
		rates:       make(map[string]Rate, len(builtinRates)),
		defaultRate: RateStandard,
		fetcher:     fetcher,
		logger:      logger,
	}
	c.seedBuiltins()
	return c
}

// SetDefault overrides the fallback rate returned when nothing matches.
func (c *RateCache) SetDefault(r Rate) {
	if !r.IsValid() {
		return
	}
	c.mu.Lock()
	c.defaultRate = r
	c.mu.Unlock()
}

// Default returns the configured fallback rate.
func (c *RateCache) Default() Rate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultRate
}

// Set registers a rate for a class key. Invalid rates are snapped.
func (c *RateCache) Set(class string, r Rate) {
	if !r.IsValid() {
		r = SnapToAllowed(r.Percent())
	}
	c.mu.Lock()
	c.rates[Normalize(class)] = r
	c.mu.Unlock()
}

// Initialize builds the cache from the upstream catalog. A fetch failure is
// logged and the cache keeps resolving from the built-in table.
func (c *RateCache) Initialize(ctx context.Context) error {
	if c.fetcher == nil {
		return nil
	}

	classes, err := c.fetcher.FetchTaxClasses(ctx)
	if err != nil {
		c.logger.Warn("tax class catalog fetch failed, keeping built-in rates", zap.Error(err))
		return nil
	}
	entries, err := c.fetcher.FetchTaxRates(ctx)
	if err != nil {
		c.logger.Warn("tax rate table fetch failed, keeping built-in rates", zap.Error(err))
		return nil
	}

	fetched := make(map[string]Rate, len(classes))
	for _, class := range classes {
		entry, ok := rateEntryForClass(entries, class.Slug)
		if !ok {
			continue
		}
		rate := SnapToAllowed(entry.Percent)
		fetched[Normalize(class.Slug)] = rate
		if class.Name != "" {
			fetched[Normalize(class.Name)] = rate
		}
	}

	c.mu.Lock()
	for key, rate := range fetched {
		c.rates[key] = rate
	}
	// built-ins fill whatever the catalog left unmapped
	for key, rate := range builtinRates {
		if _, ok := c.rates[key]; !ok {
			c.rates[key] = rate
		}
	}
	size := len(c.rates)
	c.mu.Unlock()

	c.logger.Info("tax rate cache rebuilt",
		zap.Int("classes", len(classes)),
		zap.Int("entries", size),
	)
	return nil
}

// Refresh rebuilds the cache from upstream. Alias of Initialize for explicit
// re-initialization call sites.
func (c *RateCache) Refresh(ctx context.Context) error {
	return c.Initialize(ctx)
}

// rateEntryForClass selects the rate row for a class, preferring a
// jurisdiction-specific row over a generic one.
func rateEntryForClass(entries []TaxRateEntry, slug string) (TaxRateEntry, bool) {
	normSlug := Normalize(slug)
	var generic *TaxRateEntry
	for i := range entries {
		if Normalize(entries[i].Class) != normSlug {
			continue
		}
		switch entries[i].Country {
		case preferredCountry:
			return entries[i], true
		case "":
			if generic == nil {
				generic = &entries[i]
			}
		default:
			if generic == nil {
				generic = &entries[i]
			}
		}
	}
	if generic != nil {
		return *generic, true
	}
	return TaxRateEntry{}, false
}

// Resolve maps a tax-class string to an allowed rate. Deterministic for a
// given cache state; never fails, falling back to the configured default.
func (c *RateCache) Resolve(class string) Rate {
	c.mu.RLock()
	defer c.mu.RUnlock()

	normalized := Normalize(class)
	if rate, ok := c.rates[normalized]; ok {
		return rate
	}
	if rate, ok := c.rates[class]; ok {
		return rate
	}
	for _, variant := range spellingVariants(normalized) {
		if rate, ok := c.rates[variant]; ok {
			return rate
		}
	}
	if rate, ok := patternRate(normalized); ok {
		return rate
	}
	return c.defaultRate
}

func (c *RateCache) seedBuiltins() {
	c.mu.Lock()
	for key, rate := range builtinRates {
		c.rates[key] = rate
	}
	c.mu.Unlock()
}

// Normalize canonicalizes a tax-class key: lowercase, diacritics stripped,
// whitespace and underscores collapsed to single hyphens, edges trimmed.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = stripDiacritics(s)
	s = separatorRe.ReplaceAllString(s, "-")
	s = multiHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// spellingVariants generates alternate spellings of a normalized key for a
// second round of exact lookups.
func spellingVariants(key string) []string {
	if key == "" {
		return nil
	}
	variants := []string{
		strings.ReplaceAll(key, "-", "_"),
		strings.ReplaceAll(key, "-", ""),
		strings.ReplaceAll(key, "-", " "),
		"tva-" + key,
		"taux-" + key,
	}
	return variants
}

// patternRate applies keyword and numeral heuristics to an unresolved key.
func patternRate(key string) (Rate, bool) {
	if key == "" {
		return RateZero, false
	}
	for _, kw := range []string{"exonere", "exempt", "zero", "gratuit", "free", "sans-tva", "hors-taxe"} {
		if strings.Contains(key, kw) {
			return RateZero, true
		}
	}
	if m := numeralRe.FindString(key); m != "" {
		if d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ".")); err == nil {
			candidate := Rate(d.IntPart())
			if candidate.IsValid() && d.Equal(candidate.Percent()) {
				return candidate, true
			}
		}
	}
	// super-reduced before reduced: the latter is a substring of the former
	for _, kw := range []string{"super-reduit", "super-reduced", "super"} {
		if strings.Contains(key, kw) {
			return RateSuperReduced, true
		}
	}
	for _, kw := range []string{"reduit", "reduced", "intermediaire", "intermediate"} {
		if strings.Contains(key, kw) {
			return RateIntermediate, true
		}
	}
	for _, kw := range []string{"standard", "normal", "plein"} {
		if strings.Contains(key, kw) {
			return RateStandard, true
		}
	}
	return RateZero, false
}
