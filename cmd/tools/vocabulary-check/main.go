// cmd/tools/vocabulary-check/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"rental-chatbot/internal/catalog"
	"rental-chatbot/pkg/vocabulary"
)

func main() {
	vocabPath := flag.String("vocab", "data/vocabulary.yaml", "Path to the vocabulary file")
	catalogPath := flag.String("catalog", "data/catalog.tsv", "Path to the catalog file")
	delimiter := flag.String("delimiter", "\t", "Catalog column delimiter")
	flag.Parse()

	ok, err := check(context.Background(), os.Stdout, *vocabPath, *catalogPath, *delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(2)
	}
}

// check reports vocabulary entries that point outside the catalog and catalog brands that are
// only reachable through their own name. It returns false when the vocabulary is invalid.
func check(ctx context.Context, out io.Writer, vocabPath, catalogPath, delimiter string) (bool, error) {
	cat, err := catalog.NewFileSource(catalogPath, delimiter).Load(ctx)
	if err != nil {
		return false, err
	}
	extra, err := vocabulary.Load(vocabPath)
	if err != nil {
		return false, err
	}

	fmt.Fprintf(out, "catalog: %d products, %d brands, %d categories\n", cat.Len(), len(cat.Brands()), len(cat.Categories()))
	fmt.Fprintf(out, "vocabulary: %d brand aliases, %d category aliases\n", len(extra.Brands), len(extra.Categories))

	valid := true
	if err := extra.Validate(cat.Brands(), cat.Categories()); err != nil {
		valid = false
		fmt.Fprintf(out, "invalid: %v\n", err)
	}

	aliased := map[string]struct{}{}
	for _, s := range extra.Brands {
		aliased[s.Canonical] = struct{}{}
	}
	for _, b := range cat.Brands() {
		if _, ok := aliased[b]; !ok {
			fmt.Fprintf(out, "no alias: brand %q\n", b)
		}
	}

	if valid {
		fmt.Fprintln(out, "vocabulary OK")
	}
	return valid, nil
}
