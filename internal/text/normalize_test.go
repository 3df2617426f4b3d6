package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voicestudio/voice-service/internal/text"
)

func TestNormalizeForSpeech(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		input string
		want  string
	}{
		"plain":             {input: "Hello world", want: "Hello world"},
		"whitespace runs":   {input: "Hello\t\n  world \r\n", want: "Hello world"},
		"em dash":           {input: "one—two", want: "one-two"},
		"en dash":           {input: "one–two", want: "one-two"},
		"ellipsis char":     {input: "wait…", want: "wait..."},
		"control chars":     {input: "a\x00b\x1fc", want: "a b c"},
		"only whitespace":   {input: "   \n\t ", want: ""},
		"empty":             {input: "", want: ""},
		"leading, trailing": {input: "  hi  ", want: "hi"},
	}

	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, text.NormalizeForSpeech(testCase.input))
		})
	}
}
