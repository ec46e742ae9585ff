package categorizer

import (
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// shortTerm is the longest merchant term that must match a whole word.
const shortTerm = 3

// taxonomyFile is the YAML layout of a taxonomy.
type taxonomyFile struct {
	Version    int               `yaml:"version"`
	Default    string            `yaml:"default"`
	Aliases    map[string]string `yaml:"aliases"`
	Special    []specialFile     `yaml:"special"`
	Categories []domain.Category `yaml:"categories"`
}

type specialFile struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// term is one matchable string bound to a category index.
type term struct {
	text     string
	category int
	bounded  bool
}

type specialRule struct {
	re       *regexp.Regexp
	category int
}

// Taxonomy is the fixed category table with its lookup structures.
type Taxonomy struct {
	Version    int
	Categories []domain.Category

	defaultIdx int
	byName     map[string]int
	aliases    map[string]int
	merchants  []term
	keywords   []term
	special    []specialRule
}

// DefaultTaxonomy parses the embedded taxonomy.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomy)
}

// LoadTaxonomy reads a taxonomy from YAML.
func LoadTaxonomy(r io.Reader) (*Taxonomy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("LoadTaxonomy: reading: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy validates and indexes a YAML taxonomy. Category names must be
// unique; aliases, special rules and the default must name a category.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ParseTaxonomy: unmarshal: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("ParseTaxonomy: no categories defined")
	}

	t := &Taxonomy{
		Version:    f.Version,
		Categories: f.Categories,
		byName:     make(map[string]int, len(f.Categories)),
		aliases:    make(map[string]int, len(f.Aliases)),
	}
	for i, c := range f.Categories {
		key := normalizeCategory(c.Name)
		if key == "" {
			return nil, fmt.Errorf("ParseTaxonomy: category %d has no name", i)
		}
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("ParseTaxonomy: duplicate category %q", c.Name)
		}
		t.byName[key] = i
	}

	idx, ok := t.byName[normalizeCategory(f.Default)]
	if !ok {
		return nil, fmt.Errorf("ParseTaxonomy: default category %q is not defined", f.Default)
	}
	t.defaultIdx = idx

	for alias, target := range f.Aliases {
		idx, ok := t.byName[normalizeCategory(target)]
		if !ok {
			return nil, fmt.Errorf("ParseTaxonomy: alias %q points to unknown category %q", alias, target)
		}
		t.aliases[normalizeCategory(alias)] = idx
	}

	for _, s := range f.Special {
		idx, ok := t.byName[normalizeCategory(s.Category)]
		if !ok {
			return nil, fmt.Errorf("ParseTaxonomy: special rule for unknown category %q", s.Category)
		}
		re, err := regexp.Compile("(?i)" + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("ParseTaxonomy: compiling rule for %q: %w", s.Category, err)
		}
		t.special = append(t.special, specialRule{re: re, category: idx})
	}

	for i, c := range f.Categories {
		for _, m := range c.Merchants {
			if text := matchForm(m); text != "" {
				t.merchants = append(t.merchants, term{text: text, category: i, bounded: utf8.RuneCountInString(text) <= shortTerm})
			}
		}
		for _, k := range c.Keywords {
			if text := matchForm(k); text != "" {
				t.keywords = append(t.keywords, term{text: text, category: i, bounded: true})
			}
		}
	}
	longestFirst(t.merchants)
	longestFirst(t.keywords)

	return t, nil
}

// Names lists category names in declaration order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		names[i] = c.Name
	}
	return names
}

// Default is the terminal fallback category.
func (t *Taxonomy) Default() domain.Category {
	return t.Categories[t.defaultIdx]
}

// Lookup finds a category by name or alias, ignoring case and surrounding space.
func (t *Taxonomy) Lookup(name string) (domain.Category, bool) {
	key := normalizeCategory(name)
	if idx, ok := t.byName[key]; ok {
		return t.Categories[idx], true
	}
	if idx, ok := t.aliases[key]; ok {
		return t.Categories[idx], true
	}
	return domain.Category{}, false
}

func longestFirst(terms []term) {
	sort.SliceStable(terms, func(i, j int) bool {
		return utf8.RuneCountInString(terms[i].text) > utf8.RuneCountInString(terms[j].text)
	})
}

// matchForm folds case and turns punctuation into single spaces so terms and
// transaction text compare the same way.
func matchForm(s string) string {
	folded := cases.Fold().String(s)
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizeCategory normalizes a category name for comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
