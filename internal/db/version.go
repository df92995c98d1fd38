package db

import (
	"github.com/persistorai/orienteer/internal/db/migrations"
)

// SchemaVersion returns the number of embedded migration files, which equals
// the schema version the Postgres store expects. It is reported by health checks.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	return count
}
