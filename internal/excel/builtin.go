package excel

import (
	"bytes"
	"context"
	_ "embed"
)

// Built-in starter deck: word, meaning, example, category
//
//go:embed vocab.csv
var builtinVocab []byte

// ImportBuiltin seeds review items for the built-in word list
func ImportBuiltin(ctx context.Context, seeder Seeder) (*ImportResult, error) {
	return ImportCSV(ctx, seeder, bytes.NewReader(builtinVocab), DefaultImportConfig())
}
