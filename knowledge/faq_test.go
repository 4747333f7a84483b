package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAQBookAnswer(t *testing.T) {
	book := DefaultFAQs()

	t.Run("matches regardless of case and whitespace", func(t *testing.T) {
		answer, ok := book.Answer("  ReTuRn policy kya hai?  ")
		require.True(t, ok)
		assert.Equal(t, "Hamari return policy 30 din ki hai. Item unused ho aur receipt ho to asani se return ho jata hai.", answer)
	})

	t.Run("alternate keywords", func(t *testing.T) {
		answer, ok := book.Answer("kitne din me delivery hoti hai?")
		require.True(t, ok)
		assert.Contains(t, answer, "Standard shipping")

		answer, ok = book.Answer("kya aap card lete hain?")
		require.True(t, ok)
		assert.Contains(t, answer, "COD")
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := book.Answer("gift wrapping available hai?")
		assert.False(t, ok)
	})

	t.Run("empty text never matches", func(t *testing.T) {
		_, ok := book.Answer("")
		assert.False(t, ok)
		_, ok = book.Answer("   ")
		assert.False(t, ok)
	})
}

func TestFAQBookOrdering(t *testing.T) {
	book := NewFAQBook(
		FAQ{Topic: "first", Keywords: []string{"policy"}, Answer: "first wins"},
		FAQ{Topic: "second", Keywords: []string{"policy"}, Answer: "never reached"},
	)

	answer, ok := book.Answer("what is your policy?")
	require.True(t, ok)
	assert.Equal(t, "first wins", answer)

	// replacing an entry keeps its priority position
	book.Put("first", FAQ{Topic: "first", Keywords: []string{"policy"}, Answer: "updated"})
	answer, _ = book.Answer("policy?")
	assert.Equal(t, "updated", answer)
}

func TestFAQBookStore(t *testing.T) {
	book := DefaultFAQs()

	faq, ok := book.Get("Return Policy")
	require.True(t, ok)
	assert.Equal(t, "return policy", faq.Topic)

	list := book.List()
	require.Len(t, list, 3)
	assert.Equal(t, "return policy", list[0].Topic)
	assert.Equal(t, "payment methods", list[2].Topic)
}
