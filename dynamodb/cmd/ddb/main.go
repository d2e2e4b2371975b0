// ddb browses DynamoDB tables from the terminal or a local web API.
//
// # Installation
//
//	go install github.com/gregory-bonaventure/dynamodb-web/dynamodb/cmd/ddb@latest
//
// # Commands
//
//	ddb ui        Start the browser API server
//	ddb tables    List tables
//	ddb scan      Print records of a table
//	ddb inspect   Decompress and pretty-print a value
//	ddb snapshot  Copy AWS tables into the local store
//	ddb seed      Load JSONC seed files into the local store
//	ddb whoami    Show the AWS identity in use
//
// # Quick Start
//
// Browse a region:
//
//	ddb ui --region eu-west-1
//
// Work offline against a snapshot:
//
//	ddb snapshot orders users
//	ddb ui --local
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "ui", "serve":
		err = runUI(args)
	case "tables", "ls":
		err = runTables(args)
	case "scan":
		err = runScan(args)
	case "inspect":
		err = runInspect(args)
	case "snapshot":
		err = runSnapshot(args)
	case "seed":
		err = runSeed(args)
	case "whoami":
		err = runWhoAmI(args)
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version":
		fmt.Printf("ddb version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "ddb: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ddb %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// newFlagSet creates a command flag set that prints usage on --help.
func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ddb "+name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  ddb %s %s\n\nFlags:\n%s", name, usage, fs.FlagUsages())
	}
	return fs
}

func printUsage() {
	fmt.Println(`ddb - DynamoDB browser

Usage:
  ddb <command> [flags]

Commands:
  ui        Start the browser API server
  tables    List tables
  scan      Print records of a table
  inspect   Decompress and pretty-print a value
  snapshot  Copy AWS tables into the local store
  seed      Load JSONC seed files into the local store
  whoami    Show the AWS identity in use
  version   Print the version

Examples:
  # Browse a region on port 3070:
  ddb ui --region eu-west-1

  # Search the first 200 records of a table:
  ddb scan orders --limit 200 --search shipped

  # Decode a gzip+base64 attribute:
  ddb inspect "$PAYLOAD"
  ddb inspect --file payload.bin

  # Copy tables for offline use, then browse them:
  ddb snapshot orders users
  ddb ui --local

Configuration (optional):
  Create ddb.yaml for defaults:

    region: eu-west-1
    profile: dev
    port: 3070
    scanLimit: 50
    dataDir: ./.ddb/data
    tables:
      - name: orders
        keys:
          partitionKey: {name: customer, kind: S}
          sortKey: {name: orderId, kind: N}

  AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
  AWS_SESSION_TOKEN and DDB_ENDPOINT override the file; flags override both.

Run 'ddb <command> --help' for more information on a command.`)
}
