// Package lspsvc implements patchspec's watch mode: a long-running
// language server that republishes mined bug specifications as
// diagnostics whenever a workspace's IR/patch fixture pair changes on
// disk. It adapts the tliron/glsp wiring the Kanso language server
// uses for live parsing to patchspec's static analysis instead: there
// is no live document buffer here, only a trigger to re-run the
// C1-C8 pipeline and re-publish its verdicts.
package lspsvc

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	log "github.com/sirupsen/logrus"

	"patchspec/internal/adapter"
	"patchspec/internal/differ"
	"patchspec/internal/errors"
	"patchspec/internal/irtext"
	"patchspec/internal/patch"
	"patchspec/internal/pipeline"
	"patchspec/internal/session"
	"patchspec/internal/xlog"
)

// Fixture pair naming convention: a module is one IR text file holding
// both before.patch.*/after.patch.* function variants (spec.md §4's
// "module with both before and after function variants"), paired with
// a diff file of the same stem. Saving either re-analyzes the pair.
const (
	irSuffix    = ".ir"
	patchSuffix = ".patch.diff"
)

// Handler implements the LSP server handlers for watch mode.
type Handler struct {
	mu      sync.RWMutex
	results map[string][]differ.Result // keyed by workspace directory
}

// NewHandler returns a Handler with no prior analysis cached.
func NewHandler() *Handler {
	return &Handler{results: make(map[string][]differ.Result)}
}

// Initialize advertises sync-on-save; patchspec has no completion or
// semantic-token surface to offer, only diagnostics.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("patchspec watch mode: initialize")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindNone),
				Save:      &protocol.SaveOptions{IncludeText: ptrBool(false)},
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("patchspec watch mode: initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Info("patchspec watch mode: shutdown")
	return nil
}

// TextDocumentDidOpen analyzes the pair immediately so a client that
// opens an already-saved fixture sees diagnostics without touching it.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.analyzePair(ctx, string(params.TextDocument.URI))
}

// TextDocumentDidSave re-runs the pipeline: this, not DidChange, is
// patchspec's trigger, since analysis reads the fixtures from disk
// rather than from the editor's in-memory buffer.
func (h *Handler) TextDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	return h.analyzePair(ctx, string(params.TextDocument.URI))
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

// TextDocumentDidChange is a no-op: sync mode is None above, so the
// client shouldn't send these, but a handler is required to be wired.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	return nil
}

// analyzePair maps a saved/opened file to its IR/patch sibling,
// re-runs the pipeline over the pair, and republishes diagnostics
// against the IR fixture. A URI outside the fixture naming convention
// is silently ignored.
func (h *Handler) analyzePair(ctx *glsp.Context, rawURI string) error {
	path, err := uriToPath(rawURI)
	if err != nil {
		return fmt.Errorf("lspsvc: invalid uri %s: %w", rawURI, err)
	}

	dir, base, ok := pairOf(path)
	if !ok {
		return nil
	}

	irPath := filepath.Join(dir, base+irSuffix)
	patchPath := filepath.Join(dir, base+patchSuffix)

	results, err := runPipeline(irPath, patchPath)
	if err != nil {
		xlog.Recoverable(errors.KindIRMissing, path, err)
		return nil
	}

	h.mu.Lock()
	h.results[dir] = results
	h.mu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(pathToURI(irPath)),
		Diagnostics: diagnosticsFor(results),
	})
	return nil
}

// pairOf strips a known fixture suffix from path's base name,
// reporting the directory and shared stem the sibling file is
// expected to share.
func pairOf(path string) (dir, base string, ok bool) {
	name := filepath.Base(path)
	dir = filepath.Dir(path)
	switch {
	case strings.HasSuffix(name, patchSuffix):
		return dir, strings.TrimSuffix(name, patchSuffix), true
	case strings.HasSuffix(name, irSuffix):
		return dir, strings.TrimSuffix(name, irSuffix), true
	default:
		return "", "", false
	}
}

// runPipeline parses the on-disk module/patch pair and runs C2
// through C8 over it, marking every function the diff's lines touch
// as changed (spec.md §4.2 steps 1-2). The module carries both
// before.patch.*/after.patch.* variants, so one adapter serves both
// sides of the session.
func runPipeline(irPath, patchPath string) ([]differ.Result, error) {
	irSrc, err := os.ReadFile(irPath)
	if err != nil {
		return nil, err
	}
	patchSrc, err := os.ReadFile(patchPath)
	if err != nil {
		return nil, err
	}

	prog, err := irtext.Parse(string(irSrc))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", irPath, err)
	}

	p, err := patch.Parse(patchPath, string(patchSrc))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", patchPath, err)
	}
	if p.IsEmpty() {
		return nil, fmt.Errorf("%s touches no lines", patchPath)
	}

	a := adapter.New(prog)
	s := session.New(a, a)
	for _, name := range patch.ChangedFunctions(p, prog) {
		s.MarkChanged(name)
	}

	return pipeline.Run(context.Background(), s), nil
}

// uriToPath and pathToURI convert between a file:// URI and a local
// path, mirroring the Kanso language server's conversion helper.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func pathToURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
