package ports

import (
	"context"
	"io"
	"time"

	"repo2text/internal/data/history"
	"repo2text/internal/data/source"
	"repo2text/internal/engine/catalog"
	"repo2text/internal/engine/resolver"
	"repo2text/internal/ui/report"
)

// HistoryStore abstracts run persistence for the history command.
type HistoryStore interface {
	RecordRun(ctx context.Context, run history.Run) (history.Run, error)
	ListRuns(ctx context.Context, projectKey string, limit int) ([]history.Run, error)
	Close() error
}

// SourceOpener opens a content source for a locator.
type SourceOpener func(ctx context.Context, locator string, opts source.Options) (source.Source, error)

// ListRequest selects which catalog entries to return.
type ListRequest struct {
	Source     string
	Extensions []string
}

type ListResult struct {
	Source string
	Kind   catalog.Kind
	Files  []catalog.FileDescriptor
}

// ResolveRequest asks for the dependency closure of Root, a catalog path or
// display path inside Source.
type ResolveRequest struct {
	Source string
	Root   string
	Status resolver.StatusFunc
}

// GenerateRequest defines which files go into a context document. Paths,
// Extensions, and DepsOf are combined as a union; when all are empty every
// file is selected.
type GenerateRequest struct {
	Source     string
	Paths      []string
	Extensions []string
	DepsOf     string
	// OutputPath overrides the configured output file. When both are empty
	// the document is written to Stdout.
	OutputPath string
	Stdout     io.Writer
	// Redact masks detected secrets even when [output] redact_secrets is off.
	Redact bool
	Status resolver.StatusFunc
}

type GenerateResult struct {
	Source     string
	Kind       catalog.Kind
	Files      []catalog.FileDescriptor
	Stats      report.Stats
	Redacted   int
	OutputPath string
	Resolution *resolver.Resolution
	Duration   time.Duration
}

// ContextService is the driving port used by the CLI.
type ContextService interface {
	List(ctx context.Context, req ListRequest) (ListResult, error)
	Resolve(ctx context.Context, req ResolveRequest) (*resolver.Resolution, error)
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Watch(ctx context.Context, req GenerateRequest, onRun func(GenerateResult, error)) error
	History(ctx context.Context, limit int) ([]history.Run, error)
	Close() error
}
