package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"borrowck/internal/analysis"
	"borrowck/internal/diag"
	"borrowck/internal/ownership"
	"borrowck/internal/source"
	"borrowck/internal/trace"
	"borrowck/internal/unit"
	"borrowck/internal/version"
)

type Options struct {
	Mode           ownership.Mode
	MaxDiagnostics int
	Jobs           int        // 0 means GOMAXPROCS
	Cache          *DiskCache // nil disables caching
	Progress       ProgressSink
	BaseDir        string // paths in diagnostics are relative to it
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Path      string
	FileID    source.FileID
	Bag       *diag.Bag
	Functions int
	Cached    bool
	Elapsed   time.Duration
}

type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *Result) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Diagnostics returns every diagnostic, files in input order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for i := range r.Files {
		out = append(out, r.Files[i].Bag.Items()...)
	}
	return out
}

type loaded struct {
	path string
	file source.FileID
	data []byte
	doc  *unit.Document
	err  error
	key  Digest
}

// CheckFiles loads and checks files. Loading runs in order so FileIDs follow
// the input; checking runs on up to Options.Jobs goroutines. Problems with an
// input file become IO diagnostics of that file; the returned error is kept
// for cancellation and analysis defects.
func CheckFiles(ctx context.Context, files []string, opts Options) (*Result, error) {
	ctx, run := trace.Start(ctx, trace.ScopeDriver, "check_files")
	defer run.End(fmt.Sprintf("%d files", len(files)))

	fs := source.NewFileSetWithBase(opts.BaseDir)
	res := &Result{FileSet: fs, Files: make([]FileResult, len(files))}
	if len(files) == 0 {
		return res, nil
	}
	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	inputs := make([]loaded, len(files))
	for i, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
		inputs[i] = load(fs, path, opts.Mode)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fr, err := checkOne(gctx, &inputs[i], opts)
			// Each goroutine owns its index.
			res.Files[i] = fr
			return err
		})
	}
	err := g.Wait()
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusDone})
	return res, err
}

func load(fs *source.FileSet, path string, mode ownership.Mode) loaded {
	in := loaded{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		in.file = fs.Add(path, nil, 0)
		in.err = &unit.Error{Code: diag.IOLoadFileError, Path: path, Msg: "failed to read file", Err: err}
		return in
	}
	in.data = data
	in.key = CacheKey(version.Version, mode.String(), data)
	in.doc, in.err = unit.Parse(path, data, unit.EncodingOf(path))
	text := data
	if in.doc != nil && in.doc.Source() != nil {
		text = in.doc.Source()
	}
	in.file = fs.Add(path, text, 0)
	return in
}

func checkOne(ctx context.Context, in *loaded, opts Options) (FileResult, error) {
	start := time.Now()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, "check_file", trace.SpanFromContext(ctx))
	span.WithExtra("path", in.path)
	defer span.End("")

	fr := FileResult{Path: in.path, FileID: in.file, Bag: diag.NewBag(opts.MaxDiagnostics)}
	finish := func(status Status, err error) {
		fr.Elapsed = time.Since(start)
		emit(opts.Progress, Event{File: in.path, Stage: StageCheck, Status: status, Err: err, Elapsed: fr.Elapsed})
	}

	if in.err != nil {
		fr.Bag.Add(diag.NewError(unit.CodeOf(in.err), source.Span{File: in.file}, unit.Message(in.err)))
		finish(StatusError, in.err)
		return fr, nil
	}

	if opts.Cache != nil {
		var payload DiskPayload
		if hit, err := opts.Cache.Get(in.key, &payload); err == nil && hit {
			for _, d := range payload.diagnostics(in.file) {
				fr.Bag.Add(d)
			}
			fr.Functions, fr.Cached = payload.Functions, true
			trace.Point(tracer, trace.ScopeModule, "cache_hit", in.path, span.ID())
			finish(StatusCached, nil)
			return fr, nil
		}
	}

	emit(opts.Progress, Event{File: in.path, Stage: StageCheck, Status: StatusWorking})
	u, err := in.doc.Unit(in.path, in.file)
	if err != nil {
		fr.Bag.Add(diag.NewError(unit.CodeOf(err), source.Span{File: in.file}, unit.Message(err)))
		finish(StatusError, err)
		return fr, nil
	}

	// Functions inside a file run sequentially; files are the unit of
	// parallelism here.
	ures, err := analysis.CheckUnit(trace.WithSpan(ctx, span), u, analysis.Options{
		Mode:           opts.Mode,
		MaxDiagnostics: opts.MaxDiagnostics,
		Jobs:           1,
	})
	if err != nil {
		finish(StatusError, err)
		return fr, fmt.Errorf("%s: %w", in.path, err)
	}
	fr.Bag = ures.Bag
	fr.Functions = len(ures.Functions)
	fr.Bag.Sort()

	if opts.Cache != nil {
		if err := opts.Cache.Put(in.key, toPayload(in.path, fr.Functions, fr.Bag.Items())); err != nil {
			trace.Point(tracer, trace.ScopeModule, "cache_write_failed", err.Error(), span.ID())
		}
	}
	status := StatusDone
	if fr.Bag.HasErrors() {
		status = StatusError
	}
	finish(status, nil)
	return fr, nil
}
