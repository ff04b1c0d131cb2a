// Command know is a local RAG pipeline: ingest documents into Qdrant,
// ask questions against them, or serve an OpenAI-compatible API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/backend"
	"github.com/kailas-cloud/know/internal/chunker"
	"github.com/kailas-cloud/know/internal/config"
	"github.com/kailas-cloud/know/internal/domain"
	"github.com/kailas-cloud/know/internal/extract"
	logpkg "github.com/kailas-cloud/know/internal/logger"
	"github.com/kailas-cloud/know/internal/metrics"
	"github.com/kailas-cloud/know/internal/qdrant"
	ingestuc "github.com/kailas-cloud/know/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/know/internal/usecase/query"
	"github.com/kailas-cloud/know/internal/version"
)

const usageText = `know - ask questions about your documents

Usage:
  know ingest [-extensions md,txt] [-watch] <path>   index documents
  know ask <question>                                answer one question
  know serve [-port 8080]                            OpenAI-compatible API server
  know status                                        show service availability
  know clean [collection]                            delete the collection
  know version                                       print build info
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	if os.Args[1] == "version" {
		fmt.Printf("know %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	env := config.GetEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "know:", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "know:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger}

	switch os.Args[1] {
	case "ingest":
		err = a.runIngest(ctx, os.Args[2:])
	case "ask":
		err = a.runAsk(ctx, os.Args[2:])
	case "serve":
		err = a.runServe(ctx, os.Args[2:])
	case "status":
		err = a.runStatus(ctx)
	case "clean":
		err = a.runClean(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "know:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *app) store() *qdrant.Client {
	return qdrant.New(qdrant.Config{
		URL:     a.cfg.Qdrant.URL,
		Timeout: time.Duration(a.cfg.Qdrant.TimeoutSec) * time.Second,
	})
}

func (a *app) extractor() *extract.Service {
	return extract.New(extract.Config{
		DoclingURL: a.cfg.Docling.URL,
		Timeout:    time.Duration(a.cfg.Docling.TimeoutSec) * time.Second,
	}, a.logger)
}

// requireStore fails early with a remediation hint instead of letting
// every later call time out one by one.
func (a *app) requireStore(ctx context.Context, store *qdrant.Client) error {
	if store.IsAvailable(ctx) {
		return nil
	}
	return fmt.Errorf("%w at %s\nstart it with: docker run -p 6333:6333 qdrant/qdrant",
		domain.ErrStoreUnavailable, a.cfg.Qdrant.URL)
}

func (a *app) detectBackend(ctx context.Context) (backend.Backend, error) {
	return backend.Detect(ctx, backend.Options{
		Provider:   a.cfg.Backend.Provider,
		BaseURL:    a.cfg.Backend.BaseURL,
		GenModel:   a.cfg.Backend.Model,
		EmbedModel: a.cfg.Backend.EmbedModel,
		APIKey:     a.cfg.Backend.APIKey,
	}, a.logger)
}

func (a *app) runIngest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	extensions := fs.String("extensions", a.cfg.Ingest.Extensions, "comma-separated extension allow-list")
	watch := fs.Bool("watch", false, "keep running and re-ingest files as they change")
	_ = fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return errors.New("usage: know ingest [-extensions md,txt] [-watch] <path>")
	}

	a.cfg.Ingest.Extensions = *extensions
	exts := a.cfg.Extensions()

	store := a.store()
	if err := a.requireStore(ctx, store); err != nil {
		return err
	}

	llm, err := a.detectBackend(ctx)
	if err != nil {
		return err
	}

	svc := ingestuc.New(
		llm, store, a.extractor(),
		chunker.New(a.cfg.Ingest.ChunkSize),
		a.cfg.Qdrant.Collection, a.logger,
	)

	if *watch {
		return svc.Watch(ctx, path, exts)
	}

	report, err := svc.Run(ctx, path, exts)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d chunks from %d files (%d skipped)\n",
		report.ChunksStored, report.FilesScanned-report.FilesSkipped, report.FilesSkipped)
	return nil
}

func (a *app) runAsk(ctx context.Context, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("usage: know ask <question>")
	}

	store := a.store()
	if err := a.requireStore(ctx, store); err != nil {
		return err
	}

	llm, err := a.detectBackend(ctx)
	if err != nil {
		return err
	}

	svc := queryuc.New(llm, store, a.cfg.Qdrant.Collection, a.logger)

	answer, err := svc.Ask(ctx, question, queryuc.DefaultTopK)
	if errors.Is(err, domain.ErrEmptyCollection) {
		fmt.Println("The knowledge base is empty. Run 'know ingest <path>' first.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			fmt.Println("  -", src)
		}
	}
	return nil
}

func (a *app) runStatus(ctx context.Context) error {
	store := a.store()

	fmt.Printf("qdrant (%s): %s\n", a.cfg.Qdrant.URL, upDown(store.IsAvailable(ctx)))
	fmt.Printf("docling (%s): %s\n", a.cfg.Docling.URL, upDown(a.extractor().Probe(ctx)))

	if info, err := store.CollectionInfo(ctx, a.cfg.Qdrant.Collection); err == nil && info != nil {
		fmt.Printf("collection %q: %d chunks\n", a.cfg.Qdrant.Collection, info.PointsCount)
	} else {
		fmt.Printf("collection %q: not created\n", a.cfg.Qdrant.Collection)
	}

	llm, err := a.detectBackend(ctx)
	if err != nil {
		fmt.Println("backend: none available")
		return nil
	}
	fmt.Printf("backend: %s\n", llm.Name())
	return nil
}

func (a *app) runClean(ctx context.Context, args []string) error {
	collection := a.cfg.Qdrant.Collection
	if len(args) > 0 && args[0] != "" {
		collection = args[0]
	}

	store := a.store()
	if err := a.requireStore(ctx, store); err != nil {
		return err
	}
	if err := store.DeleteCollection(ctx, collection); err != nil {
		return err
	}
	fmt.Printf("Deleted collection %q\n", collection)
	return nil
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}
