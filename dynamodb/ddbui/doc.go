// Package ddbui serves the DynamoDB browser as a JSON API.
//
// The API lists tables, scans a bounded page of records, filters that page
// by a global search term or per-column terms, and runs binary or text
// attributes through the attrinspect pipeline so compressed payloads can be
// read.
//
// # Routes
//
//	GET  /healthz
//	GET  /api/tables
//	GET  /api/tables/{table}
//	GET  /api/tables/{table}/items?limit=&search=&filter.<column>=&attributes=&lastKey=
//	POST /api/inspect
//	GET  /api/regions
//	GET  /api/whoami
//
// # Usage
//
// Start the server against AWS:
//
//	ddb ui --region eu-west-1 --port 8080
//
// Or against a local BadgerDB directory:
//
//	ddb ui --local --data-dir ./data
package ddbui
