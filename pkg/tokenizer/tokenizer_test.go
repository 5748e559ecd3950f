package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input    string
		expected []string
		desc     string
	}{
		{"Google Chrome", []string{"Google", "Chrome"}, "space split"},
		{"fooBarBaz", []string{"foo", "Bar", "Baz"}, "camelCase split"},
		{"foo-bar", []string{"foo", "bar"}, "punctuation split"},
		{"  spaced   out  ", []string{"spaced", "out"}, "collapsed separators"},
		{"a--b__c", []string{"a", "b", "c"}, "repeated punctuation"},
		{"HTTPServer", []string{"HTTPServer"}, "upper run stays whole"},
		{"word2vec", []string{"word2vec"}, "digits glue to letters"},
		{"Visual Studio Code", []string{"Visual", "Studio", "Code"}, "three words"},
		{"Café Olé", []string{"Café", "Olé"}, "utf-8 bytes stay inside words"},
		{"", nil, "empty input"},
		{"---", nil, "only separators"},
		{"x", []string{"x"}, "single char"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tokenize(tc.input))
		})
	}
}

func TestWordsIsRestartable(t *testing.T) {
	seq := Words("open Terminal")

	first := []string{}
	for w := range seq {
		first = append(first, w)
	}
	second := []string{}
	for w := range seq {
		second = append(second, w)
	}

	assert.Equal(t, []string{"open", "Terminal"}, first)
	assert.Equal(t, first, second)
}

func TestWordsStopsEarly(t *testing.T) {
	var got []string
	for w := range Words("one two three four") {
		got = append(got, w)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 3, Count("fooBar baz"))
	assert.Equal(t, 0, Count("  "))
}
