package content

import (
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"
)

// Rating — оценка игры от Дюка.
type Rating struct {
	Score int
	Text  string
}

// Positive сообщает, заслуживает ли оценка позитивной реакции.
func (r Rating) Positive() bool {
	return r.Score >= 7
}

// Weapon — единица арсенала.
type Weapon struct {
	Key   string
	Emoji string
	Name  string
	Line  string
}

// Provider выдаёт фиксированный и случайный контент бота.
type Provider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewProvider создаёт провайдер с источником случайности от текущего времени.
func NewProvider() *Provider {
	seed := uint64(time.Now().UnixNano())
	return NewProviderWithSource(rand.NewPCG(seed, seed>>1|1))
}

// NewProviderWithSource создаёт провайдер с заданным источником, для детерминированных тестов.
func NewProviderWithSource(src rand.Source) *Provider {
	return &Provider{rnd: rand.New(src)}
}

func (p *Provider) pick(items []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return items[p.rnd.IntN(len(items))]
}

// Quote возвращает случайную цитату.
func (p *Provider) Quote() string {
	return p.pick(quotes)
}

// Info ищет тему по точному совпадению после trim и lower-case. Пустая тема означает default.
func (p *Provider) Info(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		topic = defaultTopic
	}
	text, ok := topics[topic]
	return text, ok
}

// Topics возвращает отсортированный список тем.
func (p *Provider) Topics() []string {
	out := make([]string, 0, len(topics))
	for k := range topics {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Rating возвращает случайную оценку и реакцию к ней.
func (p *Provider) Rating() (Rating, string) {
	p.mu.Lock()
	r := ratings[p.rnd.IntN(len(ratings))]
	p.mu.Unlock()
	if r.Positive() {
		return r, p.pick(positiveReactions)
	}
	return r, p.pick(negativeReactions)
}

// Cheer возвращает случайную позитивную реакцию.
func (p *Provider) Cheer() string {
	return p.pick(positiveReactions)
}

// AlienScan возвращает случайный отчёт сканера.
func (p *Provider) AlienScan() string {
	return p.pick(alienScans)
}

// Arsenal возвращает весь арсенал в фиксированном порядке.
func (p *Provider) Arsenal() []Weapon {
	out := make([]Weapon, len(arsenal))
	copy(out, arsenal)
	return out
}

// Weapon ищет оружие по ключу без учёта регистра.
func (p *Provider) Weapon(name string) (Weapon, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, w := range arsenal {
		if w.Key == name {
			return w, true
		}
	}
	return Weapon{}, false
}

// Rejection возвращает отповедь для пользователя без прав.
func (p *Provider) Rejection() string {
	return p.pick(rejections)
}

// SlowDown возвращает ответ на превышение лимита.
func (p *Provider) SlowDown() string {
	return p.pick(slowDowns)
}
