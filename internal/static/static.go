package static

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/HMasataka/corsserve/internal/cors"
	"github.com/felixge/httpsnoop"
)

const indexPage = "/index.html"

type options struct {
	cors      cors.Options
	accessLog *slog.Logger
}

type Option func(*options)

func WithCORS(opts cors.Options) Option {
	return func(o *options) {
		o.cors = opts
	}
}

// WithAccessLog はリクエストごとのアクセスログを有効にする。nilの場合は無効。
func WithAccessLog(logger *slog.Logger) Option {
	return func(o *options) {
		o.accessLog = logger
	}
}

// Handler は root 以下のファイルを配信し、すべてのレスポンスにCORSヘッダーを付与する
type Handler struct {
	http.Handler
	root string
}

// Root は解決済みの配信ルートの絶対パスを返す
func (h *Handler) Root() string {
	return h.root
}

// NewHandler は root を呼び出し時点で絶対パスに解決する。以降のカレントディレクトリの変更には影響されない。
func NewHandler(root string, opts ...Option) (*Handler, error) {
	o := options{cors: cors.DefaultOptions()}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	dir := http.Dir(abs)
	var h http.Handler = &fileHandler{
		dir:   dir,
		files: http.FileServer(dir),
	}
	h = cors.Handler(h, o.cors)

	if o.accessLog != nil {
		h = accessLog(h, o.accessLog)
	}

	return &Handler{Handler: h, root: abs}, nil
}

// fileHandler は http.FileServer の index.html へのリダイレクトを行わず、ファイルとして直接返す
type fileHandler struct {
	dir   http.Dir
	files http.Handler
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, indexPage) {
		h.files.ServeHTTP(w, r)
		return
	}

	name := r.URL.Path
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}

	f, err := h.dir.Open(path.Clean(name))
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, err)
		return
	}

	if info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "404 page not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrPermission):
		http.Error(w, "403 Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}

func accessLog(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		logger.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", m.Code),
			slog.Int64("bytes", m.Written),
			slog.Duration("duration", m.Duration),
			slog.String("remote", r.RemoteAddr),
		)
	})
}
