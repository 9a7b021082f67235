package keywords

import (
	"errors"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/mozillazg/go-unidecode"
)

// Reaction — вид реакции бота на ключевое слово.
type Reaction string

const (
	ReactQuote     Reaction = "quote"
	ReactAlienScan Reaction = "alien_scan"
	ReactOutOfGum  Reaction = "out_of_gum"
	ReactHype      Reaction = "hype"
)

// Rule связывает ключевые слова с реакцией.
type Rule struct {
	Keywords []string
	Reaction Reaction
}

// DefaultRules возвращает стандартную таблицу ключевых слов.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"nukem", "nuke"}, Reaction: ReactQuote},
		{Keywords: []string{"alien", "aliens"}, Reaction: ReactAlienScan},
		{Keywords: []string{"gum", "bubble gum"}, Reaction: ReactOutOfGum},
		{Keywords: []string{"duke"}, Reaction: ReactHype},
	}
}

// ErrNoKeywords — пустая таблица ключевых слов.
var ErrNoKeywords = errors.New("нет ключевых слов")

// Match — найденное ключевое слово.
type Match struct {
	Keyword  string
	Reaction Reaction
}

// Matcher ищет ключевые слова автоматом Ахо-Корасик по транслитерированному тексту.
type Matcher struct {
	machine   *goahocorasick.Machine
	reactions map[string]Reaction
}

// NewMatcher строит автомат по правилам.
func NewMatcher(rules []Rule) (*Matcher, error) {
	reactions := make(map[string]Reaction)
	var patterns [][]rune
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			norm := string(Normalize(kw))
			if strings.TrimSpace(norm) == "" {
				continue
			}
			if _, dup := reactions[norm]; dup {
				continue
			}
			reactions[norm] = rule.Reaction
			patterns = append(patterns, []rune(norm))
		}
	}
	if len(patterns) == 0 {
		return nil, ErrNoKeywords
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Matcher{machine: m, reactions: reactions}, nil
}

// Match возвращает первое по позиции ключевое слово, стоящее отдельным словом.
// При совпадении позиций побеждает более длинное.
func (m *Matcher) Match(text string) (Match, bool) {
	content := Normalize(text)
	if len(content) == 0 {
		return Match{}, false
	}
	var (
		best    Match
		bestPos = -1
		bestLen int
	)
	for _, term := range m.machine.MultiPatternSearch(content, false) {
		end := term.Pos + len(term.Word)
		if !boundary(content, term.Pos-1) || !boundary(content, end) {
			continue
		}
		if bestPos == -1 || term.Pos < bestPos || (term.Pos == bestPos && len(term.Word) > bestLen) {
			kw := string(term.Word)
			best = Match{Keyword: kw, Reaction: m.reactions[kw]}
			bestPos, bestLen = term.Pos, len(term.Word)
		}
	}
	return best, bestPos >= 0
}

// Normalize транслитерирует текст в ASCII и приводит к нижнему регистру.
func Normalize(text string) []rune {
	return []rune(strings.ToLower(unidecode.Unidecode(text)))
}

func boundary(content []rune, i int) bool {
	if i < 0 || i >= len(content) {
		return true
	}
	r := content[i]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
