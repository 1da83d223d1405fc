package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class int
		lang  language.Tag
		want  string
	}{
		{0, language.English, "low"},
		{1, language.English, "medium"},
		{2, language.English, "high"},
		{0, language.Portuguese, "baixo"},
		{1, language.Portuguese, "médio"},
		{2, language.Portuguese, "alto"},
		{2, language.BrazilianPortuguese, "alto"},
		{3, language.English, "unknown"},
		{-1, language.Portuguese, "desconhecido"},
		{1, language.German, "medium"},
	}
	for _, tt := range tests {
		t.Run(tt.lang.String()+"/"+tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Label(tt.class, tt.lang))
		})
	}
}

func TestParseLang(t *testing.T) {
	t.Parallel()

	assert.Equal(t, language.English, ParseLang("en"))
	assert.Equal(t, language.English, ParseLang(""))
	assert.Equal(t, language.English, ParseLang("zz-not-a-lang"))
	assert.Equal(t, language.Portuguese, ParseLang("pt"))
	assert.Equal(t, language.Portuguese, ParseLang("pt-BR"))
	assert.Equal(t, language.Portuguese, ParseLang("Portuguese"))
}
