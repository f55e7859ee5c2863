package suites

import (
	"context"
	"database/sql"
	"os"
	"time"

	"itd/internal/provision"
	"itd/internal/suite"
)

// Database checks the per-worker database handed out by the orchestrator.
// It expects itdrun's environment: DB_DATABASE names the worker database and
// DB_HOST, DB_PORT, DB_USERNAME and DB_PASSWORD reach its server. Without
// DB_DATABASE the test skips; a shell that exports it makes `itd <index>` dial MySQL.
type Database struct{}

func databaseClass() suite.Class {
	return suite.Class{
		Name: suite.ClassOf(Database{}),
		Tests: []suite.Method{
			suite.Test("testWorkerDatabaseReachable", func(t *suite.T) {
				name := os.Getenv("DB_DATABASE")
				if name == "" {
					t.Skip("DB_DATABASE not set")
				}

				db, err := sql.Open("mysql", provision.DSN(name))
				if err != nil {
					t.Fatalf("open %s: %v", name, err)
				}
				defer db.Close()

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := db.PingContext(ctx); err != nil {
					t.Fatalf("ping %s: %v", name, err)
				}
			}).Described("Worker database accepts connections").WithTimeout(30 * time.Second),
		},
	}
}
