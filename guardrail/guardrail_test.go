package guardrail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qasid-ai/qasid/provider"
)

func TestBlocklist(t *testing.T) {
	checker := DefaultBlocklist()

	t.Run("blocks on any hit", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "Tum log bkwas ho")
		require.NoError(t, err)
		assert.False(t, verdict.Allowed)
		assert.Contains(t, verdict.Reason, "bkwas")
	})

	t.Run("case-insensitive", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "you are an IDIOT")
		require.NoError(t, err)
		assert.False(t, verdict.Allowed)
	})

	t.Run("clean text allowed", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "Return policy kya hai?")
		require.NoError(t, err)
		assert.True(t, verdict.Allowed)
		assert.False(t, verdict.Flagged)
	})

	t.Run("empty text allowed", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, verdict.Allowed)
	})
}

func TestSentiment(t *testing.T) {
	checker := DefaultSentiment()

	t.Run("flags without blocking", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "Your service is worst, refund now!")
		require.NoError(t, err)
		assert.True(t, verdict.Allowed)
		assert.True(t, verdict.Flagged)
	})

	t.Run("neutral text passes", func(t *testing.T) {
		verdict, err := checker.Check(context.Background(), "shipping time kitna hai?")
		require.NoError(t, err)
		assert.False(t, verdict.Flagged)
	})
}

func TestCheckerFunc(t *testing.T) {
	checker := CheckerFunc("too-long", func(_ context.Context, text string) (Verdict, error) {
		if len(text) > 10 {
			return Verdict{Allowed: false, Reason: "message too long"}, nil
		}
		return Allow, nil
	})

	assert.Equal(t, "too-long", checker.Name())

	verdict, err := checker.Check(context.Background(), "short")
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)

	verdict, err = checker.Check(context.Background(), "this one is definitely too long")
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
}

type fakeProvider struct {
	events []provider.StreamEvent
	err    error
}

func (p *fakeProvider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan provider.StreamEvent, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

type fakeModel struct {
	prov provider.Provider
}

func (m *fakeModel) Name() string                { return "fake-model" }
func (m *fakeModel) Provider() provider.Provider { return m.prov }

func TestTopic(t *testing.T) {
	t.Run("on-topic allowed", func(t *testing.T) {
		model := &fakeModel{prov: &fakeProvider{events: []provider.StreamEvent{
			provider.Response{Content: `{"on_topic":true,"reason":"math question"}`},
		}}}
		checker := Topic("math-only", model, "mathematics")

		verdict, err := checker.Check(context.Background(), "what is 2+2?")
		require.NoError(t, err)
		assert.True(t, verdict.Allowed)
	})

	t.Run("off-topic rejected with reason", func(t *testing.T) {
		model := &fakeModel{prov: &fakeProvider{events: []provider.StreamEvent{
			provider.Response{Content: `{"on_topic":false,"reason":"political content"}`},
		}}}
		checker := Topic("no-politics", model, "customer support")

		verdict, err := checker.Check(context.Background(), "who should win the election?")
		require.NoError(t, err)
		assert.False(t, verdict.Allowed)
		assert.Equal(t, "political content", verdict.Reason)
	})

	t.Run("delegate failure rejects", func(t *testing.T) {
		model := &fakeModel{prov: &fakeProvider{err: errors.New("connection refused")}}
		checker := Topic("math-only", model, "mathematics")

		verdict, err := checker.Check(context.Background(), "2+2?")
		require.Error(t, err)
		assert.False(t, verdict.Allowed)
	})

	t.Run("error event rejects", func(t *testing.T) {
		model := &fakeModel{prov: &fakeProvider{events: []provider.StreamEvent{
			provider.Error{Err: errors.New("rate limited")},
		}}}
		checker := Topic("math-only", model, "mathematics")

		verdict, err := checker.Check(context.Background(), "2+2?")
		require.Error(t, err)
		assert.False(t, verdict.Allowed)
	})

	t.Run("garbage verdict rejects", func(t *testing.T) {
		model := &fakeModel{prov: &fakeProvider{events: []provider.StreamEvent{
			provider.Response{Content: "not json at all"},
		}}}
		checker := Topic("math-only", model, "mathematics")

		verdict, err := checker.Check(context.Background(), "2+2?")
		require.Error(t, err)
		assert.False(t, verdict.Allowed)
	})

	t.Run("empty text allowed without delegation", func(t *testing.T) {
		checker := Topic("math-only", &fakeModel{}, "mathematics")
		verdict, err := checker.Check(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, verdict.Allowed)
	})
}
