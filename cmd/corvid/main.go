package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/corvidchess/corvid/pkg/board/fen"
	"github.com/corvidchess/corvid/pkg/engine"
	"github.com/corvidchess/corvid/pkg/engine/uci"
	"github.com/corvidchess/corvid/pkg/eval"
	"github.com/corvidchess/corvid/pkg/eval/nnue"
	"github.com/corvidchess/corvid/pkg/search"
	"github.com/seekerror/logw"
	"golang.org/x/sync/errgroup"
)

var (
	hash  = flag.Uint("hash", 64, "Transposition table size in MB")
	depth = flag.Uint("depth", 0, "Fixed search depth limit (zero for no limit)")
	book  = flag.String("book", "", "Path to a Polyglot opening book (empty to disable)")
	net   = flag.String("nnue", "", "Path to an NNUE network file (empty to use HCE)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: corvid [options]

CORVID is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	evaluator, b, err := loadAssets(ctx, *net, *book)
	if err != nil {
		logw.Exitf(ctx, "Failed to initialize: %v", err)
	}

	e := engine.New(ctx, "corvid", "corvidchess", search.NewIterative(), evaluator,
		engine.WithOptions(engine.Options{Depth: *depth, Hash: *hash, Book: b != nil}),
		engine.WithBook(orNoBook(b)))

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}

// loadAssets loads the NNUE network and the opening book concurrently -- the two startup
// I/O operations are independent of each other -- and falls back to HCE (and an empty
// book) on a missing or malformed file, per the resource-unavailable handling in the
// specification's error taxonomy.
func loadAssets(ctx context.Context, netPath, bookPath string) (eval.Evaluator, *engine.Book, error) {
	var evaluator eval.Evaluator = eval.HCE{}
	var b *engine.Book

	g, _ := errgroup.WithContext(ctx)

	if netPath != "" {
		g.Go(func() error {
			f, err := os.Open(netPath)
			if err != nil {
				logw.Errorf(ctx, "NNUE network %v unavailable, falling back to HCE: %v", netPath, err)
				return nil
			}
			defer f.Close()

			n, err := nnue.Load(f)
			if err != nil {
				logw.Errorf(ctx, "NNUE network %v malformed, falling back to HCE: %v", netPath, err)
				return nil
			}
			startpos, _, _, _, _ := fen.Decode(fen.Initial)
			evaluator = eval.NewNNUEEvaluator(n, startpos)
			return nil
		})
	}

	if bookPath != "" {
		g.Go(func() error {
			f, err := os.Open(bookPath)
			if err != nil {
				logw.Errorf(ctx, "Book %v unavailable, disabling book: %v", bookPath, err)
				return nil
			}
			defer f.Close()

			loaded, err := engine.LoadBook(f, rand.NewSource(time.Now().UnixNano()))
			if err != nil {
				logw.Errorf(ctx, "Book %v malformed, disabling book: %v", bookPath, err)
				return nil
			}
			b = loaded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return evaluator, b, nil
}

func orNoBook(b *engine.Book) *engine.Book {
	if b == nil {
		return engine.NoBook
	}
	return b
}
