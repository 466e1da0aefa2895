// Package conversation turns typed browser commands into structured
// commands and prints notices back to the user.
package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches command-mode input using keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex   *regexp.Regexp
	command domain.CommandType
}

// facetAliases maps the words accepted before a facet value to its key.
var facetAliases = map[string]domain.FacetKey{
	"cat":          domain.FacetCategory,
	"category":     domain.FacetCategory,
	"tag":          domain.FacetTags,
	"tags":         domain.FacetTags,
	"ing":          domain.FacetIngredients,
	"ingredient":   domain.FacetIngredients,
	"ingredients":  domain.FacetIngredients,
	"steps":        domain.FacetInstructions,
	"instructions": domain.FacetInstructions,
	"title":        domain.FacetTitle,
}

var (
	facetRe  = regexp.MustCompile(`(?i)^(\S+)\s+(.+)$`)
	removeRe = regexp.MustCompile(`(?i)^(rm|remove|del|delete)\s+(\S+)(?:\s+(.+))?$`)
	sortRe   = regexp.MustCompile(`(?i)^sort(?:\s+(\S+)(?:\s+(\S+))?)?$`)
	searchRe = regexp.MustCompile(`(?i)^(?:search\s+|/)(.*)$`)
)

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(reset|clear|reset all)$`), domain.CommandReset},
		{regexp.MustCompile(`(?i)^(more|next|m|load more)$`), domain.CommandMore},
		{regexp.MustCompile(`(?i)^(chips|filters|applied)$`), domain.CommandChips},
		{regexp.MustCompile(`(?i)^(refresh|reload)$`), domain.CommandRefresh},
		{regexp.MustCompile(`(?i)^(show|list|ls|results)$`), domain.CommandShow},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.CommandQuit},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.CommandHelp},
	}
	return p
}

// Parse converts command-mode input into a command. Input that matches
// nothing yields CommandUnknown with the raw text; a malformed sort key
// is an error wrapping domain.ErrInvalidSortKey.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Command{Type: domain.CommandUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched command: %s", rule.command)
			return &domain.Command{Type: rule.command}, nil
		}
	}

	switch strings.ToLower(trimmed) {
	case "categories", "cats":
		return &domain.Command{Type: domain.CommandCategories, Facet: domain.FacetCategory}, nil
	case "tags":
		return &domain.Command{Type: domain.CommandCategories, Facet: domain.FacetTags}, nil
	}

	if m := sortRe.FindStringSubmatch(trimmed); m != nil {
		key, err := normalizeSort(m[1], m[2])
		if err != nil {
			return nil, err
		}
		return &domain.Command{Type: domain.CommandSort, Value: string(key)}, nil
	}

	if m := searchRe.FindStringSubmatch(trimmed); m != nil {
		return &domain.Command{Type: domain.CommandSearch, Value: strings.TrimSpace(m[1])}, nil
	}

	if m := removeRe.FindStringSubmatch(trimmed); m != nil {
		if key, ok := facetAliases[strings.ToLower(m[2])]; ok {
			return &domain.Command{Type: domain.CommandRemoveFacet, Facet: key, Value: strings.TrimSpace(m[3])}, nil
		}
	}

	if m := facetRe.FindStringSubmatch(trimmed); m != nil {
		if key, ok := facetAliases[strings.ToLower(m[1])]; ok {
			return &domain.Command{Type: domain.CommandAddFacet, Facet: key, Value: strings.TrimSpace(m[2])}, nil
		}
	}

	p.log.Debug("no match, returning unknown command")
	return &domain.Command{Type: domain.CommandUnknown, Value: trimmed}, nil
}

// normalizeSort accepts "cook", "cook desc" or "Cook DESC". An empty field
// unsets the sort.
func normalizeSort(field, dir string) (domain.SortKey, error) {
	if field == "" {
		return domain.SortNone, nil
	}
	if dir == "" {
		dir = "ASC"
	}
	raw := strings.ToLower(field) + " " + strings.ToUpper(dir)
	key, err := domain.ParseSortKey(raw)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", field+" "+dir, err)
	}
	return key, nil
}

// HelpText lists the commands the parser understands.
const HelpText = `Commands:
  cat <name>        filter by category (repeat to add more)
  tag <name>        require a tag
  ing <name>        require an ingredient
  steps <text>      instructions contain text
  title <text>      title contains text
  search <text>     search titles (same as typing in search mode)
  rm <key> [value]  remove a filter, e.g. "rm tag vegan" or "rm title"
  sort [field [ASC|DESC]]  prep, cook, date or instructions; "sort" alone unsets
  reset             clear every filter and the sort
  more              load the next page
  chips             list applied filters
  categories, tags  list known values
  refresh           re-request the current results
  quit              leave
Press Tab to switch between command and search mode.`
