package db_test

import (
	"testing"

	"github.com/persistorai/orienteer/internal/db"
)

func TestSchemaVersion(t *testing.T) {
	if got := db.SchemaVersion(); got != 2 {
		t.Errorf("SchemaVersion = %d, want 2", got)
	}
}
