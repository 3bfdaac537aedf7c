package index

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/typelens/internal/extract"
	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/logging"
	"github.com/phobologic/typelens/internal/parse"
)

// Stage names the step at which a file failed.
type Stage string

const (
	StageRead    Stage = "read"
	StageParse   Stage = "parse"
	StageExtract Stage = "extract"
)

// ErrUnsupportedFile is matched when a file has no registered grammar.
var ErrUnsupportedFile = errors.New("unsupported file type")

// FileError records one failure during a build. A file with a FileError at
// StageExtract may still have contributed its other declarations.
type FileError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e FileError) Error() string {
	return e.Path + ": " + string(e.Stage) + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// Report summarizes a build.
type Report struct {
	Files      int // files attempted
	Statements int // statements inserted, including overwrites
	Errors     []FileError
}

// Builder parses files concurrently into a fresh Index.
type Builder struct {
	Jobs              int // <= 0 uses GOMAXPROCS
	MaxDepth          int
	AllowSyntaxErrors bool
	Logger            *zap.SugaredLogger
}

// Build processes every file and returns the populated index. Failures are
// isolated per file and collected in the report; Build never aborts the
// batch because of a bad file. A cancelled ctx stops scheduling new files.
func (b *Builder) Build(ctx context.Context, files []string) (*Index, Report) {
	idx := New()
	report := Report{Files: len(files)}
	log := b.Logger
	if log == nil {
		log = logging.Nop()
	}

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(files) {
		jobs = len(files)
	}

	var (
		mu       sync.Mutex
		failures []FileError
		inserted int
	)
	record := func(errs []FileError, n int) {
		mu.Lock()
		failures = append(failures, errs...)
		inserted += n
		mu.Unlock()
	}

	work := make(chan string)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for _, f := range files {
			select {
			case work <- f:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for range jobs {
		g.Go(func() error {
			// Parsers are not safe for concurrent use; each worker keeps
			// its own, one per grammar.
			parsers := make(map[string]*sitter.Parser)
			for path := range work {
				n, errs := b.buildFile(gctx, idx, parsers, path)
				record(errs, n)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Path < failures[j].Path
	})
	for _, fe := range failures {
		log.Warnw("skipping", "path", fe.Path, "stage", string(fe.Stage), "error", fe.Err)
	}
	report.Errors = failures
	report.Statements = inserted

	log.Debugw("index built", "files", report.Files, "structures", idx.Len(), "errors", len(failures))
	return idx, report
}

func (b *Builder) buildFile(ctx context.Context, idx *Index, parsers map[string]*sitter.Parser, path string) (int, []FileError) {
	l := lang.ForPath(path)
	if l == nil {
		return 0, []FileError{{Path: path, Stage: StageRead, Err: ErrUnsupportedFile}}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return 0, []FileError{{Path: path, Stage: StageRead, Err: errors.Wrap(err, "reading file")}}
	}

	p, ok := parsers[l.Name]
	if !ok {
		p = l.NewParser()
		parsers[l.Name] = p
	}

	tree, err := parse.Source(ctx, p, source, parse.Options{AllowSyntaxErrors: b.AllowSyntaxErrors})
	if err != nil {
		return 0, []FileError{{Path: path, Stage: StageParse, Err: err}}
	}
	defer tree.Close()

	stmts, errs := extract.File(l, tree.RootNode(), source, path, b.MaxDepth)
	idx.InsertAll(stmts)

	var failures []FileError
	for _, e := range errs {
		failures = append(failures, FileError{Path: path, Stage: StageExtract, Err: e})
	}
	return len(stmts), failures
}
