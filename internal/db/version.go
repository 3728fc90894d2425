package db

import (
	"strconv"
	"strings"

	"github.com/persistorai/mindmap/internal/db/migrations"
)

// SchemaVersion returns the highest migration version embedded in the
// binary. Health checks report it so operators can spot a stale deploy.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	highest := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		if v, err := strconv.Atoi(prefix); err == nil && v > highest {
			highest = v
		}
	}

	return highest
}
