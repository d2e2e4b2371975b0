package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbiface"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbstore"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

func runSnapshot(args []string) error {
	var flags commonFlags
	var limit int
	var all bool

	fs := newFlagSet("snapshot", "<table>... [flags]")
	flags.register(fs)
	fs.IntVarP(&limit, "limit", "n", 0, "copy at most this many records per table (0 copies all)")
	fs.BoolVar(&all, "all", false, "copy every table in the region")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.local {
		return errors.New("snapshot copies from AWS; --local does not apply")
	}
	if fs.NArg() == 0 && !all {
		fs.Usage()
		return errors.New("name at least one table, or use --all")
	}

	cfg, logger, err := flags.load(fs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	names := fs.Args()
	if all {
		names = nil
		p := dynamodb.NewListTablesPaginator(conn.DynamoDB, &dynamodb.ListTablesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("list tables: %w", err)
			}
			names = append(names, page.TableNames...)
		}
	}

	for _, name := range names {
		n, err := snapshotTable(ctx, conn.DynamoDB, store, name, limit, logger)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d records copied to %s\n", name, n, cfg.DataDir)
	}
	return nil
}

// snapshotTable replaces the local copy of name with up to maxRecords records read
// from src. A maxRecords of zero copies the whole table.
func snapshotTable(ctx context.Context, src ddbiface.TableReader, dst *ddbstore.Store, name string, maxRecords int, logger *slog.Logger) (int, error) {
	out, err := src.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return 0, fmt.Errorf("describe table %s: %w", name, err)
	}
	def, err := table.FromDescription(out.Table)
	if err != nil {
		return 0, err
	}

	if err := dst.DeleteTable(ctx, name); err != nil && !errors.Is(err, ddbstore.ErrTableNotFound) {
		return 0, err
	}
	if err := dst.CreateTable(ctx, def); err != nil {
		return 0, err
	}

	count := 0
	p := dynamodb.NewScanPaginator(src, &dynamodb.ScanInput{TableName: aws.String(name)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return count, fmt.Errorf("scan %s: %w", name, err)
		}
		for _, item := range page.Items {
			if maxRecords > 0 && count >= maxRecords {
				return count, nil
			}
			if _, err := dst.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(name), Item: item}); err != nil {
				return count, fmt.Errorf("store record %d of %s: %w", count, name, err)
			}
			count++
		}
		logger.DebugContext(ctx, "snapshot progress", "table", name, "records", count)
	}
	return count, nil
}
