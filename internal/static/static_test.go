package static_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/HMasataka/corsserve/internal/cors"
	"github.com/HMasataka/corsserve/internal/static"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexHTML = "<!DOCTYPE html><html><body>game</body></html>"

func newRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "script.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "data.json"), []byte(`{"q":1}`), 0o644))

	return root
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, string(body)
}

func assertCORS(t *testing.T, res *http.Response) {
	t.Helper()

	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", res.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", res.Header.Get("Access-Control-Allow-Headers"))
}

func TestNewHandler(t *testing.T) {
	t.Run("存在しないディレクトリはエラー", func(t *testing.T) {
		_, err := static.NewHandler(filepath.Join(t.TempDir(), "missing"))

		assert.Error(t, err)
	})

	t.Run("ファイルを指定するとエラー", func(t *testing.T) {
		root := newRoot(t)

		_, err := static.NewHandler(filepath.Join(root, "index.html"))

		assert.Error(t, err)
	})
}

func TestHandler_ServeFile(t *testing.T) {
	h, err := static.NewHandler(newRoot(t))
	require.NoError(t, err)

	t.Run("index.htmlを直接取得できる", func(t *testing.T) {
		res, body := do(t, h, http.MethodGet, "/index.html", nil)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", res.Header.Get("Content-Type"))
		assert.Equal(t, indexHTML, body)
		assertCORS(t, res)
	})

	t.Run("ルートはindex.htmlを返す", func(t *testing.T) {
		res, body := do(t, h, http.MethodGet, "/", nil)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, indexHTML, body)
		assertCORS(t, res)
	})

	t.Run("サブディレクトリのファイル", func(t *testing.T) {
		res, body := do(t, h, http.MethodGet, "/assets/data.json", nil)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
		assert.Equal(t, `{"q":1}`, body)
		assertCORS(t, res)
	})

	t.Run("HEADはボディを返さない", func(t *testing.T) {
		res, body := do(t, h, http.MethodHead, "/script.js", nil)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Empty(t, body)
		assertCORS(t, res)
	})

	t.Run("Rangeリクエスト", func(t *testing.T) {
		res, body := do(t, h, http.MethodGet, "/script.js", http.Header{"Range": {"bytes=0-6"}})

		assert.Equal(t, http.StatusPartialContent, res.StatusCode)
		assert.Equal(t, "console", body)
		assertCORS(t, res)
	})
}

func TestHandler_NotFound(t *testing.T) {
	h, err := static.NewHandler(newRoot(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
	}{
		{name: "存在しない画像", target: "/does-not-exist.png"},
		{name: "存在しないディレクトリのindex.html", target: "/nothing/index.html"},
		{name: "存在しないサブディレクトリ", target: "/assets/missing/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := do(t, h, http.MethodGet, tt.target, nil)

			assert.Equal(t, http.StatusNotFound, res.StatusCode)
			assertCORS(t, res)
		})
	}
}

func TestHandler_Directory(t *testing.T) {
	h, err := static.NewHandler(newRoot(t))
	require.NoError(t, err)

	t.Run("index.htmlのないディレクトリは一覧を返す", func(t *testing.T) {
		res, body := do(t, h, http.MethodGet, "/assets/", nil)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "data.json")
		assertCORS(t, res)
	})

	t.Run("末尾スラッシュなしはリダイレクト", func(t *testing.T) {
		res, _ := do(t, h, http.MethodGet, "/assets", nil)

		assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
		assertCORS(t, res)
	})
}

func TestHandler_RootIsFixedAtConstruction(t *testing.T) {
	root := newRoot(t)
	t.Chdir(root)

	h, err := static.NewHandler(".")
	require.NoError(t, err)
	assert.Equal(t, root, h.Root())

	t.Chdir(t.TempDir())

	res, body := do(t, h, http.MethodGet, "/index.html", nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, indexHTML, body)
}

func TestHandler_Options(t *testing.T) {
	t.Run("CORS設定を差し替える", func(t *testing.T) {
		h, err := static.NewHandler(newRoot(t), static.WithCORS(cors.Options{
			AllowOrigin:  "http://localhost:5173",
			AllowMethods: []string{"GET"},
		}))
		require.NoError(t, err)

		res, _ := do(t, h, http.MethodGet, "/script.js", nil)

		assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET", res.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", res.Header.Get("Access-Control-Allow-Headers"))
	})

	t.Run("アクセスログを出力する", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		h, err := static.NewHandler(newRoot(t), static.WithAccessLog(logger))
		require.NoError(t, err)

		res, _ := do(t, h, http.MethodGet, "/does-not-exist.png", nil)

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assertCORS(t, res)
		assert.Contains(t, buf.String(), "method=GET")
		assert.Contains(t, buf.String(), "path=/does-not-exist.png")
		assert.Contains(t, buf.String(), "status=404")
	})
}
