// Package testdb provides isolated SurrealDB namespaces for repository tests.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewSongRepository(tdb.DB)
//	}
//
// Tests are skipped when no SurrealDB answers on TEST_DB_HOST:TEST_DB_PORT,
// unless TEST_DB_REQUIRED=true, in which case they fail.
package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/forgo/worship/api/internal/database"
)

// TestDB is one test's private namespace.
type TestDB struct {
	DB        database.Database
	Namespace string
	t         *testing.T
}

type testConfig struct {
	Host     string `env:"TEST_DB_HOST" envDefault:"localhost"`
	Port     string `env:"TEST_DB_PORT" envDefault:"8000"`
	User     string `env:"TEST_DB_USER" envDefault:"root"`
	Password string `env:"TEST_DB_PASSWORD" envDefault:"root"`
	Required bool   `env:"TEST_DB_REQUIRED" envDefault:"false"`
}

var (
	migrationOnce sync.Once
	migrations    []string
	migrationErr  error

	counter atomic.Int64
)

func uniqueNamespace() string {
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter.Add(1))
}

// loadMigrations reads every *.surql except seed.surql in name order.
func loadMigrations() ([]string, error) {
	migrationOnce.Do(func() {
		var dir string
		for _, p := range []string{"migrations", "../migrations", "../../migrations", "../../../migrations", "../../../../migrations"} {
			if _, err := os.Stat(p); err == nil {
				dir = p
				break
			}
		}
		if dir == "" {
			if root := os.Getenv("WORSHIP_ROOT"); root != "" {
				dir = filepath.Join(root, "migrations")
			}
		}
		if dir == "" {
			migrationErr = fmt.Errorf("could not find migrations directory")
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			migrationErr = fmt.Errorf("reading migrations dir: %w", err)
			return
		}
		var files []string
		for _, e := range entries {
			if name := e.Name(); strings.HasSuffix(name, ".surql") && name != "seed.surql" {
				files = append(files, name)
			}
		}
		sort.Strings(files)

		for _, name := range files {
			content, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				migrationErr = fmt.Errorf("reading %s: %w", name, err)
				return
			}
			migrations = append(migrations, string(content))
		}
	})
	return migrations, migrationErr
}

// New connects to a fresh namespace, applies migrations, and removes the
// namespace when the test ends.
func New(t *testing.T) *TestDB {
	t.Helper()

	var cfg testConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("testdb: config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	namespace := uniqueNamespace()
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: namespace,
		Database:  "test",
	})
	if err := db.Connect(ctx); err != nil {
		if cfg.Required {
			t.Fatalf("testdb: failed to connect: %v", err)
		}
		t.Skipf("testdb: SurrealDB unavailable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	migs, err := loadMigrations()
	if err != nil {
		_ = db.Close()
		t.Fatalf("testdb: failed to load migrations: %v", err)
	}
	for i, mig := range migs {
		if err := db.Execute(ctx, mig, nil); err != nil {
			_ = db.Close()
			t.Fatalf("testdb: migration %d failed: %v", i+1, err)
		}
	}

	tdb := &TestDB{DB: db, Namespace: namespace, t: t}
	t.Cleanup(tdb.close)
	return tdb
}

func (tdb *TestDB) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
}

// Ctx returns a context bounded to ten seconds that ends with the test.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error.
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error.
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}
