package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/HMasataka/corsserve/internal/browser"
	"github.com/HMasataka/corsserve/internal/config"
	"github.com/HMasataka/corsserve/internal/cors"
	"github.com/HMasataka/corsserve/internal/static"
	"github.com/gammazero/workerpool"
)

type Option func(*Server)

// WithOutput はオペレーター向けメッセージの出力先を設定する
func WithOutput(w io.Writer) Option {
	return func(s *Server) {
		s.out = w
	}
}

func WithOpener(opener browser.Opener) Option {
	return func(s *Server) {
		s.opener = opener
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server は root 以下のファイルをCORSヘッダー付きで配信する
type Server struct {
	cfg     config.Config
	root    string
	handler http.Handler

	out    io.Writer
	opener browser.Opener
	logger *slog.Logger

	state atomic.Int32

	mu sync.Mutex
	ln net.Listener
}

func New(cfg config.Config, root string, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		out:    os.Stdout,
		opener: browser.System{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	handlerOpts := []static.Option{
		static.WithCORS(cors.Options{
			AllowOrigin:  cfg.CORS.AllowOrigin,
			AllowMethods: cfg.CORS.AllowMethods,
			AllowHeaders: cfg.CORS.AllowHeaders,
		}),
	}
	if cfg.Log.Access {
		handlerOpts = append(handlerOpts, static.WithAccessLog(s.logger))
	}

	handler, err := static.NewHandler(root, handlerOpts...)
	if err != nil {
		return nil, err
	}

	s.handler = handler
	s.root = handler.Root()

	return s, nil
}

// Root は配信しているディレクトリの絶対パスを返す
func (s *Server) Root() string {
	return s.root
}

func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr はリッスン中のアドレスを返す。リッスンしていない場合はnil。
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// URL はブラウザからアクセスするためのルートURLを返す
func (s *Server) URL() string {
	host := s.cfg.Server.Host
	port := s.cfg.Server.Port

	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}

	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/"
}

// Run はポートをバインドし、ctx がキャンセルされるまでリクエストを処理する。
// バインドに失敗した場合はメッセージを出力してエラーを返す。
func (s *Server) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateBinding)) {
		return ErrAlreadyStarted
	}

	ln, err := s.listen(ctx)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return s.bindError(err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	url := s.URL()
	s.printf("Server started at %s\n", url)
	s.printf("Serving files from: %s\n", s.root)

	pool := workerpool.New(1)
	if s.cfg.Server.OpenBrowser {
		s.printf("Opening %s in your browser...\n", url)
		pool.Submit(func() {
			s.openBrowser(url)
		})
	}

	s.printf("Press Ctrl+C to stop the server\n")

	s.state.Store(int32(StateServing))

	httpServer := &http.Server{
		Handler:  s.handler,
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		if err := httpServer.Close(); err != nil {
			s.logger.Warn("failed to close server", slog.String("error", err.Error()))
		}
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	// ブラウザの起動コマンドが戻らなくても停止を待たせない
	go pool.Stop()

	s.mu.Lock()
	s.ln = nil
	s.mu.Unlock()

	s.state.Store(int32(StateStopped))

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		s.logger.Error("server error", slog.String("error", serveErr.Error()))
		return fmt.Errorf("serve: %w", serveErr)
	}

	s.printf("\nServer stopped\n")
	return nil
}

func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig

	s.logger.Debug("binding", slog.String("addr", s.cfg.Addr()))

	return lc.Listen(ctx, "tcp", s.cfg.Addr())
}

func (s *Server) bindError(err error) error {
	if IsAddressInUse(err) {
		s.printf("Port %d is already in use.\n", s.cfg.Server.Port)
		s.printf("Try opening: %s\n", s.URL())
		return fmt.Errorf("%w: %w", ErrAddressInUse, err)
	}

	s.printf("Failed to start server: %v\n", err)
	return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
}

// openBrowser は失敗してもサーバーを止めない
func (s *Server) openBrowser(url string) {
	if err := s.opener.Open(url); err != nil {
		s.logger.Warn("failed to open browser", slog.String("url", url), slog.String("error", err.Error()))
		return
	}

	s.logger.Debug("browser opened", slog.String("url", url))
}

func (s *Server) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
