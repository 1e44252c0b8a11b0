package game

import (
	"bufio"
	"bytes"
	_ "embed"
)

// The embedded list backs word draws whenever the persistence gateway is slow
// or down; gameplay never waits on the database.
//
//go:embed words.txt
var embeddedWords []byte

var fallbackWords = loadFallbackWords()

func loadFallbackWords() []string {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(embeddedWords))
	for scanner.Scan() {
		if w := scanner.Text(); w != "" {
			words = append(words, w)
		}
	}
	return words
}
