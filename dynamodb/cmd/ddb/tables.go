package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

func runTables(args []string) error {
	var flags commonFlags
	var long bool

	fs := newFlagSet("tables", "[flags]")
	flags.register(fs)
	fs.BoolVarP(&long, "long", "l", false, "show key schema and item count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}
	ctx := context.Background()
	src, err := openSource(ctx, cfg, flags.local, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	browser := ddbbrowse.New(src.reader, ddbbrowse.WithLogger(logger))
	names, err := browser.ListCollections(ctx)
	if err != nil {
		return err
	}

	if !long {
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TABLE\tPARTITION KEY\tSORT KEY\tITEMS\tSTATUS")
	for _, name := range names {
		c, err := browser.Describe(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			c.Name, keyLabel(c.Keys.PartitionKey), keyLabel(c.Keys.SortKey), c.ItemCount, c.Status)
	}
	return writer.Flush()
}

func keyLabel(k table.KeyDef) string {
	if k.Name == "" {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", k.Name, k.Kind)
}

func runScan(args []string) error {
	var flags commonFlags
	var (
		limit      int
		search     string
		filters    []string
		attributes []string
		asJSON     bool
	)

	fs := newFlagSet("scan", "<table> [flags]")
	flags.register(fs)
	fs.IntVarP(&limit, "limit", "n", 0, "records to scan (default: scanLimit from config)")
	fs.StringVarP(&search, "search", "s", "", "case-insensitive text that must appear in some attribute")
	fs.StringArrayVarP(&filters, "filter", "f", nil, "column filter as attribute=text; repeatable")
	fs.StringSliceVarP(&attributes, "attributes", "a", nil, "only fetch these top-level attributes")
	fs.BoolVar(&asJSON, "json", false, "print records as JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one table name")
	}
	tableName := fs.Arg(0)

	filter, err := parseFilter(search, filters)
	if err != nil {
		return err
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.ScanLimit
	}

	ctx := context.Background()
	src, err := openSource(ctx, cfg, flags.local, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	browser := ddbbrowse.New(src.reader, ddbbrowse.WithLogger(logger))
	page, err := browser.Scan(ctx, tableName, ddbbrowse.ScanOptions{Limit: limit, Attributes: attributes})
	if err != nil {
		return err
	}
	items := filter.Apply(page.Items)

	if asJSON {
		if err := printDocuments(os.Stdout, items); err != nil {
			return err
		}
	} else {
		var keys table.PrimaryKeyDefinition
		if c, err := browser.Describe(ctx, tableName); err == nil {
			keys = c.Keys
		}
		printRecords(os.Stdout, items, ddbbrowse.Columns(page.Items, keys))
	}

	footer := fmt.Sprintf("%d of %d scanned records", len(items), len(page.Items))
	if page.LastKey != nil {
		footer += "; more records exist, raise --limit to see them"
	}
	fmt.Fprintln(os.Stderr, faintStyle.Render(footer))
	return nil
}

// parseFilter builds a filter from --search and attribute=text pairs.
func parseFilter(search string, pairs []string) (ddbbrowse.Filter, error) {
	f := ddbbrowse.Filter{Search: search}
	for _, p := range pairs {
		col, text, ok := strings.Cut(p, "=")
		if !ok || col == "" {
			return ddbbrowse.Filter{}, fmt.Errorf("invalid filter %q, want attribute=text", p)
		}
		if f.Columns == nil {
			f.Columns = make(map[string]string)
		}
		f.Columns[col] = text
	}
	return f, nil
}

func printRecords(w io.Writer, items []ddbbrowse.Item, columns []string) {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(columns, "\t"))
	for _, item := range items {
		cells := ddbbrowse.Cells(item, columns)
		texts := make([]string, len(cells))
		for i, c := range cells {
			// Tabs and newlines would break the column layout.
			texts[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(c.Text)
		}
		fmt.Fprintln(writer, strings.Join(texts, "\t"))
	}
	writer.Flush()
}

func printDocuments(w io.Writer, items []ddbbrowse.Item) error {
	docs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		doc, err := ddbbrowse.Document(item)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	printCode(w, string(b), "json")
	return nil
}

func runWhoAmI(args []string) error {
	var flags commonFlags
	var asJSON bool

	fs := newFlagSet("whoami", "[flags]")
	flags.register(fs)
	fs.BoolVar(&asJSON, "json", false, "print as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.local {
		return errors.New("whoami needs AWS credentials and does not apply to --local")
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}
	ctx := context.Background()
	conn, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	id, err := conn.Identity(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		b, err := json.MarshalIndent(id, "", "  ")
		if err != nil {
			return err
		}
		printCode(os.Stdout, string(b), "json")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Account\t%s\n", id.Account)
	if id.Alias != "" {
		fmt.Fprintf(writer, "Alias\t%s\n", id.Alias)
	}
	fmt.Fprintf(writer, "ARN\t%s\n", id.ARN)
	fmt.Fprintf(writer, "User ID\t%s\n", id.UserID)
	fmt.Fprintf(writer, "Region\t%s\n", conn.Config.Region)
	return writer.Flush()
}
