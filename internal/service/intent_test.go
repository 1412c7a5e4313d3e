package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/mindforge/internal/reasoning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntentResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		intent   string
		keywords []string
		status   reasoning.ParseStatus
	}{
		{
			name:     "clean",
			raw:      "INTENT: Tesla Model 3\nKEYWORDS: tesla, Model 3, elon",
			intent:   "tesla_model_3",
			keywords: []string{"tesla", "model 3", "elon"},
			status:   reasoning.ParseOK,
		},
		{
			name:     "surrounding chatter and markdown",
			raw:      "Sure!\n**INTENT:** bitcoin\n**KEYWORDS:** btc,  satoshi ,\nHope that helps.",
			intent:   "bitcoin",
			keywords: []string{"btc", "satoshi"},
			status:   reasoning.ParseOK,
		},
		{
			name:   "intent only",
			raw:    "intent: ethereum",
			intent: "ethereum",
			status: reasoning.ParseFallback,
		},
		{
			name:   "garbage",
			raw:    "I think they are talking about cars.",
			intent: FallbackIntent,
			status: reasoning.ParseFailed,
		},
		{
			name:   "empty intent",
			raw:    "INTENT:   \"\"\nKEYWORDS: a",
			intent: FallbackIntent,
			status: reasoning.ParseFailed,
		},
		{
			name:   "blank intent line does not borrow the next line",
			raw:    "INTENT:\nKEYWORDS: tesla, elon",
			intent: FallbackIntent,
			status: reasoning.ParseFailed,
		},
		{
			name:   "blank keywords line",
			raw:    "INTENT: tesla\nKEYWORDS:\nThanks",
			intent: "tesla",
			status: reasoning.ParseFallback,
		},
		{
			name:     "crlf line endings",
			raw:      "INTENT: tesla\r\nKEYWORDS: tesla, elon\r\n",
			intent:   "tesla",
			keywords: []string{"tesla", "elon"},
			status:   reasoning.ParseOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIntentResponse(tt.raw)
			assert.Equal(t, tt.intent, got.Intent)
			assert.Equal(t, tt.keywords, got.Keywords)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestNormalizeIntent(t *testing.T) {
	assert.Equal(t, "elon_musk", NormalizeIntent("  Elon   Musk "))
	assert.Equal(t, "bitcoin", NormalizeIntent(`"Bitcoin".`))
	assert.Equal(t, "", NormalizeIntent("   "))
}

func TestLastUserLine(t *testing.T) {
	conv := "user: hi\nassistant: hello\nUser: tell me about Elon Musk\nassistant: sure"
	assert.Equal(t, "tell me about Elon Musk", lastUserLine(conv))
	assert.Equal(t, "no roles here", lastUserLine("no roles here"))
}

func TestClassify_PatternHitSkipsModel(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()
	require.NoError(t, f.agents.MergeIntentKeywords(ctx, "agent-1", "tesla", []string{"tesla", "elon"}))

	conv := "user: hello\nassistant: hi\nuser: Elon Musk announced a new car"
	got := f.classifier.Classify(ctx, "agent-1", conv, "")

	assert.Equal(t, "tesla", got.Intent)
	assert.Equal(t, SourcePattern, got.Source)
	assert.Equal(t, 0, f.model.CallCount())
}

func TestClassify_PatternOnlyChecksLatestUserLine(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()
	require.NoError(t, f.agents.MergeIntentKeywords(ctx, "agent-1", "tesla", []string{"elon"}))

	conv := "user: what about elon?\nassistant: ...\nuser: what is a blockchain?"
	got := f.classifier.Classify(ctx, "agent-1", conv, "tesla")

	assert.Equal(t, "blockchain", got.Intent)
	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, 1, f.model.CallCount())
	assert.Contains(t, f.model.LastPrompt(), "Previous topic: tesla")
}

func TestClassify_ModelKeywordsGrowCache(t *testing.T) {
	f := newFixture(t, defaultScript())
	ctx := context.Background()
	require.NoError(t, f.agents.MergeIntentKeywords(ctx, "agent-1", "blockchain", []string{"distributed ledger"}))

	got := f.classifier.Classify(ctx, "agent-1", "user: what is a chain of blocks?", "")
	require.Equal(t, "blockchain", got.Intent)
	require.Equal(t, SourceModel, got.Source)

	patterns, err := f.agents.IntentPatterns(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"distributed ledger", "blockchain", "ledger", "cadena de bloques"},
		patterns.Keywords("blockchain"),
	)

	// The learned keywords now resolve without a model call.
	calls := f.model.CallCount()
	again := f.classifier.Classify(ctx, "agent-1", "user: is a Ledger wallet safe?", "")
	assert.Equal(t, "blockchain", again.Intent)
	assert.Equal(t, SourcePattern, again.Source)
	assert.Equal(t, calls, f.model.CallCount())
}

func TestClassify_FallsBackToGeneral(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		script := defaultScript()
		script.intent = "no idea"
		f := newFixture(t, script)

		got := f.classifier.Classify(context.Background(), "agent-1", "user: hmm", "")
		assert.Equal(t, FallbackIntent, got.Intent)
		assert.Equal(t, SourceFallback, got.Source)
	})

	t.Run("blank intent line", func(t *testing.T) {
		script := defaultScript()
		script.intent = "INTENT:\nKEYWORDS: tesla, elon"
		f := newFixture(t, script)
		writes := f.kv.Writes()

		got := f.classifier.Classify(context.Background(), "agent-1", "user: hmm", "")
		assert.Equal(t, FallbackIntent, got.Intent)
		assert.Equal(t, writes, f.kv.Writes(), "nothing learned from a blank intent")

		patterns, err := f.agents.IntentPatterns(context.Background(), "agent-1")
		require.NoError(t, err)
		assert.Empty(t, patterns)
	})

	t.Run("model error", func(t *testing.T) {
		f := newFixture(t, defaultScript())
		f.model.Handler = nil
		f.model.Err = errors.New("provider down")
		writes := f.kv.Writes()

		got := f.classifier.Classify(context.Background(), "agent-1", "user: hmm", "")
		assert.Equal(t, FallbackIntent, got.Intent)
		assert.Equal(t, writes, f.kv.Writes(), "no cache write on failure")
	})

	t.Run("unknown agent still classifies", func(t *testing.T) {
		f := newFixture(t, defaultScript())

		got := f.classifier.Classify(context.Background(), "ghost", "user: blockchain?", "")
		assert.Equal(t, "blockchain", got.Intent)
	})
}
