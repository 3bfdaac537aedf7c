// Package hover serves structure descriptions to editors over the language
// server protocol.
package hover

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/phobologic/typelens/internal/extract"
	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/logging"
	"github.com/phobologic/typelens/internal/parse"
	"github.com/phobologic/typelens/internal/render"
)

// ServerName is reported to clients during initialization.
const ServerName = "typelens"

// Options configures a Handler.
type Options struct {
	CacheSize         int // open documents kept in memory
	MaxDepth          int
	AllowSyntaxErrors bool
	Version           string
}

// Handler implements the hover subset of the protocol. Open buffers are kept
// in an LRU cache keyed by URI; a hover on a URI that is not cached reads
// the file from disk.
type Handler struct {
	opts   Options
	logger *zap.SugaredLogger
	docs   *lru.Cache[string, string]
}

// NewHandler returns a Handler. A nil logger discards output.
func NewHandler(opts Options, logger *zap.SugaredLogger) (*Handler, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	docs, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating document cache")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{opts: opts, logger: logger, docs: docs}, nil
}

// Protocol wires the handler into a glsp protocol table.
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		SetTrace:              h.SetTrace,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
		TextDocumentHover:     h.TextDocumentHover,
	}
}

// RunStdio serves the protocol on stdin and stdout until the client
// disconnects.
func (h *Handler) RunStdio() error {
	server := glspserver.NewServer(h.Protocol(), ServerName, false)
	h.logger.Infow("serving hover over stdio")
	return server.RunStdio()
}

// Initialize handles LSP initialize request
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.logger.Infow("client initializing", "client", params.ClientInfo)

	capabilities := protocol.ServerCapabilities{
		HoverProvider: &protocol.HoverOptions{},
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    textDocSyncPtr(protocol.TextDocumentSyncKindFull),
		},
	}

	version := h.opts.Version
	if version == "" {
		version = "dev"
	}
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &version,
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Debugw("client initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("client shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen caches the opened buffer.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if evicted := h.docs.Add(uri, params.TextDocument.Text); evicted {
		h.logger.Debugw("document cache full, evicted oldest", "uri", uri)
	}
	h.logger.Debugw("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange replaces the cached buffer. Only full sync is
// advertised, so every change carries the whole text.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.docs.Add(uri, whole.Text)
		}
	}
	h.logger.Debugw("document changed", "uri", uri, "changes", len(params.ContentChanges))
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	h.docs.Remove(uri)
	h.logger.Debugw("document closed", "uri", uri)
	return nil
}

// TextDocumentHover describes every structure in the hovered document. The
// cursor position is not used. Failures are logged and answered with an
// empty hover.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (result *protocol.Hover, err error) {
	uri := string(params.TextDocument.URI)
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic in hover handler", "panic", r, "uri", uri)
			result = emptyHover()
			err = nil
		}
	}()

	h.logger.Debugw("hover requested",
		"uri", uri,
		"line", params.Position.Line,
		"character", params.Position.Character,
	)

	text, err := h.Describe(context.Background(), uri)
	if err != nil {
		h.logger.Warnw("hover failed", "uri", uri, "error", err)
		return emptyHover(), nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: text,
		},
	}, nil
}

// Describe renders every top-level structure of the document at uri,
// joined by newlines. A document without structures yields "". A fresh
// result is built on every call.
func (h *Handler) Describe(ctx context.Context, uri string) (string, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return "", err
	}
	l := lang.ForPath(path)
	if l == nil {
		return "", errors.Newf("%s: unsupported file type", path)
	}

	source, ok := h.docs.Get(uri)
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, "reading document")
		}
		source = string(data)
	}

	src := []byte(source)
	tree, err := parse.Source(ctx, l.NewParser(), src, parse.Options{AllowSyntaxErrors: h.opts.AllowSyntaxErrors})
	if err != nil {
		return "", errors.Wrapf(err, "%s", path)
	}
	defer tree.Close()

	stmts, errs := extract.File(l, tree.RootNode(), src, path, h.opts.MaxDepth)
	for _, e := range errs {
		h.logger.Warnw("skipping declaration", "path", path, "error", e)
	}

	blocks := make([]string, len(stmts))
	for i, st := range stmts {
		blocks[i] = render.Statement(st)
	}
	return strings.Join(blocks, "\n"), nil
}

// uriToPath accepts file URIs and plain paths.
func uriToPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "parsing uri %q", uri)
	}
	if u.Scheme != "file" {
		return "", errors.Newf("unsupported uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

func emptyHover() *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: ""},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func textDocSyncPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
