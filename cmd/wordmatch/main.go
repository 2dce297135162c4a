package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"dealguard/internal/logger"
	"dealguard/internal/wordmatch"
)

func main() {
	var path string
	flag.StringVar(&path, "wordlist", "docs/wordlist.txt", "word list, one word per line")
	flag.Parse()

	_ = logger.Init(os.Getenv("DEALGUARD_ENV"))
	defer logger.Sync()

	if err := run(path, os.Stdout); err != nil {
		logger.Get().Fatal("wordmatch failed", zap.Error(err))
	}
}

func run(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open word list")
	}
	defer f.Close()

	words, err := wordmatch.ReadWords(f)
	if err != nil {
		return err
	}
	for _, m := range wordmatch.FindMatchingWords(words) {
		if _, err := fmt.Fprintln(w, m); err != nil {
			return err
		}
	}
	return nil
}
