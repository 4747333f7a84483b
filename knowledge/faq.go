package knowledge

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FAQ pairs a topic with the keywords that trigger it and its canned answer.
type FAQ struct {
	Topic    string
	Keywords []string
	Answer   string
}

// FAQBook is an ordered registry of canned answers. Insertion order is the
// priority order: Answer returns the first entry whose keyword occurs in the
// message, so earlier entries shadow later ones.
type FAQBook struct {
	entries *orderedmap.OrderedMap[string, FAQ]
}

// NewFAQBook creates a book holding the given entries in order.
func NewFAQBook(faqs ...FAQ) *FAQBook {
	book := &FAQBook{entries: orderedmap.New[string, FAQ]()}
	for _, f := range faqs {
		book.Put(f.Topic, f)
	}
	return book
}

var _ Store[FAQ] = (*FAQBook)(nil)

// Get returns the entry registered under topic.
func (b *FAQBook) Get(topic string) (FAQ, bool) {
	return b.entries.Get(NormalizeKey(topic))
}

// Put adds or replaces an entry. Replacing keeps the original position.
func (b *FAQBook) Put(topic string, f FAQ) {
	b.entries.Set(NormalizeKey(topic), f)
}

// List returns the entries in priority order.
func (b *FAQBook) List() []FAQ {
	out := make([]FAQ, 0, b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Answer returns the canned answer for the first entry whose keyword occurs
// as a substring of the normalized message. Missing text is treated as the
// empty string and never matches.
func (b *FAQBook) Answer(text string) (string, bool) {
	normalized := NormalizeKey(text)
	if normalized == "" {
		return "", false
	}

	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		for _, kw := range pair.Value.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(kw)) {
				return pair.Value.Answer, true
			}
		}
	}
	return "", false
}

// DefaultFAQs returns the demo FAQ table.
func DefaultFAQs() *FAQBook {
	return NewFAQBook(
		FAQ{
			Topic:    "return policy",
			Keywords: []string{"return"},
			Answer:   "Hamari return policy 30 din ki hai. Item unused ho aur receipt ho to asani se return ho jata hai.",
		},
		FAQ{
			Topic:    "shipping time",
			Keywords: []string{"shipping", "delivery"},
			Answer:   "Standard shipping 3-5 din me deliver hoti hai. Express 1-2 din.",
		},
		FAQ{
			Topic:    "payment methods",
			Keywords: []string{"payment", "card", "cod"},
			Answer:   "Hum COD, Credit/Debit cards aur bank transfer accept karte hain.",
		},
	)
}
