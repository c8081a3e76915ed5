// Package voice turns a spoken shopping request such as "2 kg potato" or
// "आलू 1 किलो जोड़ें" into a list item.
package voice

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/i18n"
	"github.com/dukerupert/lifemate/internal/model"
)

// Command is a parsed request. Unit is empty when none was spoken.
type Command struct {
	Quantity    float64    `json:"quantity"`
	Unit        model.Unit `json:"unit,omitempty"`
	ProductName string     `json:"productName"`
}

var quantityPrefix = regexp.MustCompile(`^(\d+(\.\d+)?)`)

// addVerbs are stripped from the start or end of a command.
var addVerbs = []string{"add", "जोड़ें", "जोड़ीं", "जोड़ो"}

type unitLabel struct {
	value model.Unit
	label string
}

type Parser struct {
	labels []unitLabel
}

// NewParser builds a parser that recognizes every translated label of units.
// Longer labels are tried first so "packet" wins over "pcs"-like prefixes.
func NewParser(units []model.UnitOption) *Parser {
	var labels []unitLabel
	for _, u := range units {
		for _, l := range u.Label.Values() {
			labels = append(labels, unitLabel{value: u.Value, label: strings.ToLower(l)})
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return utf8.RuneCountInString(labels[i].label) > utf8.RuneCountInString(labels[j].label)
	})
	return &Parser{labels: labels}
}

// Parse reads a transcript. ok is false when no product name is left after
// the quantity, unit and verb are taken out.
func (p *Parser) Parse(transcript string) (cmd Command, ok bool) {
	text := strings.ToLower(strings.TrimSpace(transcript))
	text = stripVerb(text)

	cmd.Quantity = 1
	if m := quantityPrefix.FindString(text); m != "" {
		if q, err := strconv.ParseFloat(m, 64); err == nil {
			cmd.Quantity = q
		}
		text = strings.TrimSpace(text[len(m):])
	}

	for _, l := range p.labels {
		if i := indexWord(text, l.label); i >= 0 {
			cmd.Unit = l.value
			text = text[:i] + text[i+len(l.label):]
			break
		}
	}

	text = stripVerb(strings.Join(strings.Fields(text), " "))
	cmd.ProductName = text
	return cmd, text != ""
}

// Item resolves cmd against products. A known product gives its translated
// name, id and default unit; anything else becomes a capitalized free-form
// item measured in pieces unless a unit was spoken.
func Item(cmd Command, products []model.Product, lang i18n.LanguageCode) model.ShoppingListItem {
	item := model.ShoppingListItem{
		Quantity: cmd.Quantity,
		Unit:     cmd.Unit,
	}
	if prod, ok := catalog.FindByName(products, cmd.ProductName); ok {
		item.ID = prod.ID
		item.Name = prod.Name.In(lang)
		if item.Unit == "" {
			item.Unit = prod.Unit
		}
		return item
	}
	item.Name = capitalize(cmd.ProductName)
	if item.Unit == "" {
		item.Unit = model.UnitPieces
	}
	return item
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func stripVerb(text string) string {
	for _, v := range addVerbs {
		if rest, ok := strings.CutPrefix(text, v); ok && (rest == "" || startsWithSpace(rest)) {
			return strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutSuffix(text, v); ok && (rest == "" || endsWithSpace(rest)) {
			return strings.TrimSpace(rest)
		}
	}
	return text
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// isWordRune treats marks as word characters so Indic vowel signs do not
// split a word.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// indexWord finds word in text as a whole word and returns its byte offset,
// or -1.
func indexWord(text, word string) int {
	if word == "" {
		return -1
	}
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[i+len(word):])
		if (i == 0 || !isWordRune(before)) && (i+len(word) == len(text) || !isWordRune(after)) {
			return i
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		from = i + size
	}
	return -1
}
