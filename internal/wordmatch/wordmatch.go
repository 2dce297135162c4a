// Package wordmatch finds list entries that are two other entries glued together.
package wordmatch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// WordLength is the length of the compound words searched for.
const WordLength = 6

// Match is a word formed by concatenating First and Second.
type Match struct {
	Word   string
	First  string
	Second string
}

func (m Match) String() string {
	return fmt.Sprintf("%s + %s => %s", m.First, m.Second, m.Word)
}

// FindMatchingWords returns, in list order, every word of WordLength runes
// that splits into two list entries. Only the first (shortest prefix) split
// is reported per word.
func FindMatchingWords(words []string) []Match {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	var matches []Match
	for _, word := range words {
		runes := []rune(word)
		if len(runes) != WordLength {
			continue
		}
		for i := 1; i < len(runes); i++ {
			first, second := string(runes[:i]), string(runes[i:])
			_, okFirst := set[first]
			_, okSecond := set[second]
			if okFirst && okSecond {
				matches = append(matches, Match{Word: word, First: first, Second: second})
				break
			}
		}
	}
	return matches
}

// ReadWords reads one word per line.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		words = append(words, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan words")
	}
	return words, nil
}
