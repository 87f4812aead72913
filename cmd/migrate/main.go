// Command migrate applies, rolls back and reports the database schema
// migrations embedded in the binary.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/passforge/passforge/migrations"
)

func main() {
	log.SetFlags(0)
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or DATABASE_URL")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status]")
	}

	m, err := newMigrate(*dsn)
	if err != nil {
		log.Fatalf("initializing migrations: %v", err)
	}
	defer m.Close()

	switch flag.Arg(0) {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "status":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil || errors.Is(err, migrate.ErrNilVersion) {
			fmt.Printf("version: %d dirty: %v\n", version, dirty)
			err = nil
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func newMigrate(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("initializing database driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, "pgx", driver)
}
