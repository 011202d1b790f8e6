// pg-logstats - PostgreSQL Log Analysis Tool
//
// pg-logstats parses PostgreSQL stderr-format log files and reports query
// statistics, slow queries, errors, and activity patterns.
package main

import (
	"os"

	"github.com/vrajat/pg-logstats/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
