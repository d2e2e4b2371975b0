package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/tidwall/jsonc"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbiface"
)

// seedFile maps table names to the records to put into them. On disk it is
// JSON with comments and trailing commas:
//
//	{
//	  // two customers
//	  "users": [
//	    {"id": "u1", "name": "Ada"},
//	    {"id": "u2", "name": "Linus"},
//	  ],
//	}
type seedFile map[string][]map[string]any

func runSeed(args []string) error {
	var flags commonFlags

	fs := newFlagSet("seed", "<file.jsonc>... [flags]")
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("name at least one seed file")
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read seed: %w", err)
		}
		seed, err := parseSeed(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		counts, err := seedItems(ctx, store, seed)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, name := range sortedKeys(counts) {
			fmt.Printf("%s: %d records seeded into %s\n", path, counts[name], name)
		}
	}
	return nil
}

func parseSeed(data []byte) (seedFile, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var seed seedFile
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// seedItems puts every record of seed, table by table in name order.
func seedItems(ctx context.Context, w ddbiface.ItemWriter, seed seedFile) (map[string]int, error) {
	counts := make(map[string]int, len(seed))
	for _, name := range sortedKeys(seed) {
		for i, doc := range seed[name] {
			item, err := attributevalue.MarshalMap(seedNumbers(doc))
			if err != nil {
				return counts, fmt.Errorf("%s record %d: %w", name, i, err)
			}
			if _, err := w.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(name), Item: item}); err != nil {
				return counts, fmt.Errorf("%s record %d: %w", name, i, err)
			}
			counts[name]++
		}
	}
	return counts, nil
}

// seedNumbers turns JSON numbers into attributevalue numbers so they are
// stored as N with their literal text.
func seedNumbers(x any) any {
	switch t := x.(type) {
	case json.Number:
		return attributevalue.Number(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = seedNumbers(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = seedNumbers(v)
		}
		return out
	default:
		return x
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
