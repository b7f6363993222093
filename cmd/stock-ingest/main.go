// Command stock-ingest applies bulk stock adjustments from gzipped CSV dumps
// (one "product_id,stock" pair per line), as exported by warehouse systems.
//
// Dumps routinely reference SKUs that are not in the catalog. A bloom filter
// of catalog IDs is used to skip those lines without a database round-trip;
// filter hits are verified against the catalog before anything is written.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/velsh/stockdeck/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// stockLevel is a candidate stock value tagged with the dump it came from so
// later dumps win when several carry the same product.
type stockLevel struct {
	value   int
	fileIdx int
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one dump file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("stock ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("stock ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewProductRepository(pool)

	// Build the catalog membership filter once up front.
	products, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	catalog := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	for _, p := range products {
		catalog.AddString(p.ID)
	}
	slog.Info("catalog filter built", slog.Int("products", len(products)))

	// Scan all dumps concurrently. Later files win for products that appear
	// in several dumps, matching the warehouse export convention that the
	// last file holds the freshest counts.
	levels := make(map[string]stockLevel)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanDump(gctx, i, f, catalog, &mu, levels))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("applying stock levels", slog.Int("products", len(levels)))
	applied := 0
	for id, lv := range levels {
		if err := repo.SetStock(ctx, id, lv.value); err != nil {
			// The bloom filter can report false positives and the catalog can
			// shrink mid-ingest; skip unknown products rather than abort.
			slog.Warn("skipping product", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		applied++
	}

	slog.Info("stock levels applied", slog.Int("applied", applied), slog.Int("skipped", len(levels)-applied))
	return nil
}

// scanDump streams one gzipped CSV dump and records the stock level of every
// line whose product ID passes the catalog filter. fileIdx breaks ties when
// two files carry the same product: the higher index wins.
func scanDump(
	ctx context.Context,
	fileIdx int,
	path string,
	catalog *bloom.BloomFilter,
	mu *sync.Mutex,
	levels map[string]stockLevel,
) func() error {
	return func() error {
		var scanned, matched uint64

		err := streamGzFile(ctx, path, func(line string) {
			scanned++
			if scanned%progressEvery == 0 {
				slog.Info("scan progress", slog.String("file", path), slog.Uint64("lines", scanned))
			}

			id, rawLevel, ok := strings.Cut(line, ",")
			if !ok {
				return
			}
			id = strings.TrimSpace(id)
			if !catalog.TestString(id) {
				return
			}
			level, err := strconv.Atoi(strings.TrimSpace(rawLevel))
			if err != nil || level < 0 {
				return
			}

			mu.Lock()
			if prev, ok := levels[id]; !ok || fileIdx >= prev.fileIdx {
				levels[id] = stockLevel{value: level, fileIdx: fileIdx}
			}
			mu.Unlock()
			matched++
		})
		if err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("scan complete",
			slog.String("file", path),
			slog.Int("index", fileIdx),
			slog.Uint64("lines", scanned),
			slog.Uint64("matched", matched),
		)
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
