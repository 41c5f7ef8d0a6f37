// Package locator describes where on a store page each field lives.
//
// Locators are plain data: a strategy (XPath or CSS) and a query string.
// The extraction protocol only ever refers to them by key, so a page
// layout change is a YAML edit rather than a code change.
package locator

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Strategy selects the query language of a Locator.
type Strategy string

const (
	XPath Strategy = "xpath"
	CSS   Strategy = "css"
)

// Locator is a structural query identifying elements in a rendered page.
type Locator struct {
	Strategy Strategy `yaml:"strategy" validate:"required,oneof=xpath css"`
	Query    string   `yaml:"query" validate:"required"`
}

// String returns the raw query; it is what appears in log lines.
func (l Locator) String() string {
	return l.Query
}

// ByXPath returns an XPath locator.
func ByXPath(query string) Locator {
	return Locator{Strategy: XPath, Query: query}
}

// ByCSS returns a CSS selector locator.
func ByCSS(query string) Locator {
	return Locator{Strategy: CSS, Query: query}
}

// Keys used by the extraction protocol.
const (
	MoreButton     = "more_button"
	Header         = "header"
	Artwork        = "artwork"
	Developer      = "developer"
	Ratings        = "ratings"
	Size           = "size"
	Category       = "category"
	VersionHistory = "version_history"
	ReleaseDate    = "release_date"
	ModalClose     = "modal_close"
)

// RequiredKeys lists every locator key the protocol reads, in protocol order.
var RequiredKeys = []string{
	MoreButton,
	Header,
	Artwork,
	Developer,
	Ratings,
	Size,
	Category,
	VersionHistory,
	ReleaseDate,
	ModalClose,
}

// Set maps protocol keys to locators plus the artwork attribute name.
type Set struct {
	ArtworkAttribute string             `yaml:"artwork_attribute" validate:"required"`
	Locators         map[string]Locator `yaml:"locators" validate:"required,dive"`
}

const infoListItem = `//div[@class="information-list__item l-column small-12 medium-6 large-4 small-valign-top"]//dd[@class="information-list__item__definition"]`

// Default returns the locators for the App Store product page layout.
func Default() Set {
	return Set{
		ArtworkAttribute: "srcset",
		Locators: map[string]Locator{
			MoreButton:     ByXPath(`//button[@data-more-button]`),
			Header:         ByXPath(`//h1[@class="product-header__title app-header__title"]`),
			Artwork:        ByXPath(`//picture[@class="we-artwork we-artwork--downloaded product-hero__artwork we-artwork--fullwidth we-artwork--ios-app-icon"]//source[@type="image/webp"]`),
			Developer:      ByXPath(`//h2[@class="product-header__identity app-header__identity"]/a`),
			Ratings:        ByXPath(`//figcaption[@class="we-rating-count star-rating__count"]`),
			Size:           ByXPath(infoListItem),
			Category:       ByXPath(infoListItem + `/a`),
			VersionHistory: ByXPath(`//button[@id="modal-trigger-ember11"]`),
			ReleaseDate:    ByCSS(`.version-history__item__release-date`),
			ModalClose:     ByXPath(`//button[@class="we-modal__close"]`),
		},
	}
}

// Get returns the locator for key. Missing keys are a programming error
// once Validate has passed.
func (s Set) Get(key string) Locator {
	return s.Locators[key]
}

// Validate checks every locator and that no protocol key is missing.
func (s Set) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid locator set: %w", err)
	}
	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := s.Locators[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid locator set: missing keys %v", missing)
	}
	return nil
}

// Merge returns a copy of s with every locator in override replacing the
// one under the same key.
func (s Set) Merge(override Set) Set {
	out := Set{
		ArtworkAttribute: s.ArtworkAttribute,
		Locators:         make(map[string]Locator, len(s.Locators)),
	}
	for k, v := range s.Locators {
		out.Locators[k] = v
	}
	for k, v := range override.Locators {
		out.Locators[k] = v
	}
	if override.ArtworkAttribute != "" {
		out.ArtworkAttribute = override.ArtworkAttribute
	}
	return out
}

// Parse decodes a YAML locator document and overlays it on the defaults.
// A locator given as a bare string is treated as XPath.
func Parse(data []byte) (Set, error) {
	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Set{}, fmt.Errorf("failed to parse locators: %w", err)
	}
	set := Default().Merge(override)
	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// LoadFile reads locators from a YAML file, falling back to defaults for
// any key it does not mention.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user supplied locator file
	if err != nil {
		return Set{}, fmt.Errorf("failed to read locators: %w", err)
	}
	return Parse(data)
}

// Keys returns the set's keys in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.Locators))
	for k := range s.Locators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalYAML accepts either a mapping {strategy, query} or a bare
// XPath string.
func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = ByXPath(value.Value)
		return nil
	}
	type plain Locator
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = Locator(p)
	if l.Strategy == "" {
		l.Strategy = XPath
	}
	return nil
}
