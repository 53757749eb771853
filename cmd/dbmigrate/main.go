// Command dbmigrate applies forward-only SQL migrations to PostgreSQL.
package main

import "github.com/lexilight/dbmigrate/internal/cli"

func main() {
	cli.Execute()
}
