package wordmatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatchingWords(t *testing.T) {
	words := []string{"al", "bums", "albums", "bar", "ely", "barely", "be", "foundation", "befoul", "foul", "convex", "here", "hereby", "by"}
	got := FindMatchingWords(words)

	assert.Equal(t, []Match{
		{Word: "albums", First: "al", Second: "bums"},
		{Word: "barely", First: "bar", Second: "ely"},
		{Word: "befoul", First: "be", Second: "foul"},
		{Word: "hereby", First: "here", Second: "by"},
	}, got)
}

func TestFindMatchingWords_FirstSplitWins(t *testing.T) {
	words := []string{"abcdef", "a", "bcdef", "abc", "def"}
	got := FindMatchingWords(words)
	require.Len(t, got, 1)
	assert.Equal(t, "a + bcdef => abcdef", got[0].String())
}

func TestFindMatchingWords_OnlyLengthSix(t *testing.T) {
	words := []string{"ab", "cde", "abcde", "abcdefg", "efg", "abcd"}
	assert.Empty(t, FindMatchingWords(words))
}

func TestReadWords(t *testing.T) {
	words, err := ReadWords(strings.NewReader("al\r\nbums\nalbums\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"al", "bums", "albums"}, words)
}
