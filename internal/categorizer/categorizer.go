// Package categorizer assigns taxonomy categories to transactions.
//
// Decisions run through merchant rules, keyword rules, special pattern rules,
// an optional AI classifier and finally the default category. Only the AI
// tier can fail; its failures are logged and fall through to the default.
package categorizer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
)

const (
	// AdHocIcon and AdHocColor decorate AI answers outside the taxonomy.
	AdHocIcon  = "📄"
	AdHocColor = "#6b7280"

	maxAdHocLength = 40
	maxAdHocWords  = 4

	defaultConcurrency = 4
	defaultAITimeout   = 10 * time.Second
)

// Decision is a categorization outcome.
type Decision struct {
	Category   domain.Category
	Confidence domain.Confidence
	Method     domain.CategoryMethod
}

// Apply attaches the decision to a transaction.
func (d Decision) Apply(tx *domain.Transaction) {
	tx.Category = d.Category.Name
	tx.CategoryIcon = d.Category.Icon
	tx.CategoryColor = d.Category.Color
	tx.CategoryConfidence = d.Confidence
	tx.CategoryMethod = d.Method
}

// Categorizer runs the tiered decision chain.
type Categorizer struct {
	taxonomy    *Taxonomy
	classifier  Classifier
	limiter     *rate.Limiter
	timeout     time.Duration
	concurrency int
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithClassifier enables the AI tier.
func WithClassifier(c Classifier) Option {
	return func(cat *Categorizer) { cat.classifier = c }
}

// WithRateLimit caps AI calls per second across all goroutines.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cat *Categorizer) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			cat.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithTimeout bounds each AI call.
func WithTimeout(d time.Duration) Option {
	return func(cat *Categorizer) {
		if d > 0 {
			cat.timeout = d
		}
	}
}

// WithConcurrency bounds how many transactions CategorizeAll handles at once.
func WithConcurrency(n int) Option {
	return func(cat *Categorizer) {
		if n > 0 {
			cat.concurrency = n
		}
	}
}

// New creates a categorizer over a taxonomy. Without WithClassifier the AI
// tier is skipped.
func New(taxonomy *Taxonomy, opts ...Option) *Categorizer {
	c := &Categorizer{
		taxonomy:    taxonomy,
		timeout:     defaultAITimeout,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Taxonomy returns the category table in use.
func (c *Categorizer) Taxonomy() *Taxonomy {
	return c.taxonomy
}

// AIEnabled reports whether the AI tier is configured.
func (c *Categorizer) AIEnabled() bool {
	return c.classifier != nil
}

// Decide computes a category for tx without modifying it.
func (c *Categorizer) Decide(ctx context.Context, tx *domain.Transaction) Decision {
	if m, ok := c.taxonomy.MatchRules(tx.Description, tx.Merchant); ok {
		return Decision{Category: m.Category, Confidence: m.Confidence(), Method: domain.MethodRule}
	}
	if d, ok := c.classify(ctx, tx); ok {
		return d
	}
	return Decision{Category: c.taxonomy.Default(), Confidence: domain.ConfidenceLow, Method: domain.MethodDefault}
}

// Categorize fills tx's category fields unless they are already set, so
// running it again over its own output changes nothing.
func (c *Categorizer) Categorize(ctx context.Context, tx *domain.Transaction) {
	if tx == nil || tx.Categorized() {
		return
	}
	c.Decide(ctx, tx).Apply(tx)
}

// CategorizeAll categorizes transactions concurrently. Each transaction is
// written by exactly one goroutine. The only error is ctx's.
func (c *Categorizer) CategorizeAll(ctx context.Context, txs []*domain.Transaction) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, tx := range txs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Categorize(gctx, tx)
			return nil
		})
	}
	return g.Wait()
}

// classify runs the AI tier. Any failure reports !ok.
func (c *Categorizer) classify(ctx context.Context, tx *domain.Transaction) (Decision, bool) {
	if c.classifier == nil {
		return Decision{}, false
	}
	log := logger.FromContext(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("AI categorization skipped while waiting for rate limiter")
			return Decision{}, false
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	answer, err := c.classifier.Classify(callCtx, Request{
		Description: tx.Description,
		Merchant:    tx.Merchant,
		Amount:      tx.Amount,
		Type:        tx.Type,
		Categories:  c.taxonomy.Names(),
	})
	if err != nil {
		log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("AI categorization failed")
		return Decision{}, false
	}

	return c.interpret(answer)
}

// interpret maps a classifier answer onto the taxonomy. Unknown answers
// become ad-hoc categories with low confidence.
func (c *Categorizer) interpret(answer string) (Decision, bool) {
	answer = cleanModelAnswer(answer)
	if answer == "" {
		return Decision{}, false
	}
	if cat, ok := c.taxonomy.Lookup(answer); ok {
		return Decision{Category: cat, Confidence: domain.ConfidenceMedium, Method: domain.MethodAI}, true
	}
	if utf8.RuneCountInString(answer) > maxAdHocLength || len(strings.Fields(answer)) > maxAdHocWords {
		return Decision{}, false
	}
	name := cases.Title(language.English).String(strings.ToLower(answer))
	return Decision{
		Category:   domain.Category{Name: name, Icon: AdHocIcon, Color: AdHocColor},
		Confidence: domain.ConfidenceLow,
		Method:     domain.MethodAI,
	}, true
}
