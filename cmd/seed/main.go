package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/restful-oms/internal/catalog"
	"github.com/vladislavdragonenkov/restful-oms/internal/domain"
	"github.com/vladislavdragonenkov/restful-oms/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

type options struct {
	dsn     string
	force   bool
	migrate bool
}

// catalogStore читает и пишет каталог.
type catalogStore interface {
	domain.ProductStore
	domain.CatalogWriter
}

var openCatalog = func(ctx context.Context, opts options) (catalogStore, func(), error) {
	store, err := postgres.Open(ctx, opts.dsn, postgres.WithLogger(log.WithField("component", "seed")))
	if err != nil {
		return nil, nil, err
	}
	if opts.migrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return postgres.NewCatalogStore(store), func() { _ = store.Close() }, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fail("seed failed: %v", err)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (fallback: OMS_POSTGRES_DSN)")
	fs.BoolVar(&opts.force, "force", false, "seed even if products already exist")
	fs.BoolVar(&opts.migrate, "migrate", true, "apply pending migrations before seeding")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(opts.dsn) == "" {
		opts.dsn = strings.TrimSpace(os.Getenv("OMS_POSTGRES_DSN"))
	}
	if opts.dsn == "" {
		return options{}, fmt.Errorf("OMS_POSTGRES_DSN (or -dsn) is required")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	store, closeStore, err := openCatalog(ctx, opts)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer closeStore()

	existing, err := store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	if len(existing) > 0 && !opts.force {
		_, _ = fmt.Fprintf(out, "catalog already has %d products, skipping (use -force)\n", len(existing))
		return nil
	}

	res, err := catalog.Seed(ctx, store, catalog.Demo, log.WithField("component", "seed"))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "seed ok: categories=%d products=%d\n", res.Categories, res.Products)
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
