package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Trackname/internal/models"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		code     string
		strategy models.Strategy
	}{
		{
			name:     "contextual with carrier",
			text:     "(RASTREAMENTO): Correios AB123456789CD",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "contextual with qualifier and spaced groups",
			text:     "Destinatario\nOBJETO (RASTREAMENTO):\n  ab 123456789 cd\nRemetente",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "contextual is case insensitive",
			text:     "objeto (rastreamento) : correios QQ000111222BR",
			code:     "QQ000111222BR",
			strategy: models.StrategyContextual,
		},
		{
			name:     "contextual wins over an earlier bare code",
			text:     "ref XY111111111ZZ (RASTREAMENTO): AB123456789CD",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "fallback anywhere in text",
			text:     "Pedido 42 enviado. Codigo: PX 987654321 BR obrigado",
			code:     "PX987654321BR",
			strategy: models.StrategyFallback,
		},
		{
			name:     "fallback uppercases",
			text:     "label ox123456789br",
			code:     "OX123456789BR",
			strategy: models.StrategyFallback,
		},
		{
			name:     "fuzzy with mixed case lookalikes",
			text:     "QN 1O5Z3B8g6 XY",
			code:     "QN105238866XY",
			strategy: models.StrategyFuzzy,
		},
		{
			name:     "fuzzy maps lowercase l to one",
			text:     "AA l2345678S BB",
			code:     "AA123456785BB",
			strategy: models.StrategyFuzzy,
		},
		{
			name:     "contextual with non-breaking spaces",
			text:     "(RASTREAMENTO):\u00a0AB\u00a0123456789\u00a0CD",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "contextual with vertical tabs",
			text:     "(RASTREAMENTO): AB\v123456789\vCD",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "contextual carrier after non-breaking space",
			text:     "(RASTREAMENTO):\u00a0Correios AB123456789CD",
			code:     "AB123456789CD",
			strategy: models.StrategyContextual,
		},
		{
			name:     "fallback with thin space and byte order mark",
			text:     "PX\u2009987654321\ufeffBR",
			code:     "PX987654321BR",
			strategy: models.StrategyFallback,
		},
		{
			name:     "fuzzy with narrow no-break space",
			text:     "QN\u202f1O5Z3B8g6\u202fXY",
			code:     "QN105238866XY",
			strategy: models.StrategyFuzzy,
		},
		{
			name:     "kelvin sign is not a letter",
			text:     "\u212aX111111111XX then AB123456789CD",
			code:     "AB123456789CD",
			strategy: models.StrategyFallback,
		},
		{
			name:     "long s is not a letter",
			text:     "\u017fX111111111XX",
			strategy: models.StrategyNone,
		},
		{
			name:     "no code",
			text:     "This document has plenty of text but no tracking code at all.",
			strategy: models.StrategyNone,
		},
		{
			name:     "too few digits",
			text:     "AB12345678CD",
			strategy: models.StrategyNone,
		},
		{
			name:     "empty text",
			text:     "",
			strategy: models.StrategyNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.text)
			assert.Equal(t, tt.strategy, got.Strategy)
			assert.Equal(t, tt.code, got.Code)
			if tt.strategy != models.StrategyNone {
				assert.True(t, got.Found())
				assert.True(t, Valid(got.Code))
			} else {
				assert.False(t, got.Found())
			}
		})
	}
}

func TestFind_ContextualAlwaysReturnsMarkedCode(t *testing.T) {
	codes := []string{"AB123456789CD", "ZZ000000000ZZ", "JO987654321BR"}
	prefixes := []string{"(RASTREAMENTO):", "OBJETO (RASTREAMENTO): ", "objeto(rastreamento):Correios "}

	for _, code := range codes {
		for _, prefix := range prefixes {
			got := Find("noise XX999999999XX " + prefix + code + " trailing")
			assert.Equal(t, models.Match{Code: code, Strategy: models.StrategyContextual}, got, prefix+code)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "105238866", Normalize("1O5Z3B8g6"))
	assert.Equal(t, "0521186", Normalize("oszilbg"))

	for _, run := range []string{"1O5Z3B8g6", "oszilbg12", "123456789", "SSSSSSSSS"} {
		once := Normalize(run)
		assert.Equal(t, once, Normalize(once), run)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("AB123456789CD"))
	assert.False(t, Valid("ab123456789cd"))
	assert.False(t, Valid("AB 123456789 CD"))
	assert.False(t, Valid("AB12345678CD"))
	assert.False(t, Valid("A1123456789CD"))
}
