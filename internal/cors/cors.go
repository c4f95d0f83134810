package cors

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

const (
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
)

// Options はレスポンスに付与するCORSヘッダーの値を保持する
type Options struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// DefaultOptions は任意のオリジンからのGET/POST/OPTIONSを許可する設定を返す
func DefaultOptions() Options {
	return Options{
		AllowOrigin:  "*",
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()

	origin := strings.TrimSpace(o.AllowOrigin)
	if origin == "" {
		origin = def.AllowOrigin
	}

	methods := lo.Uniq(lo.FilterMap(o.AllowMethods, func(m string, _ int) (string, bool) {
		m = strings.ToUpper(strings.TrimSpace(m))
		return m, m != ""
	}))
	if len(methods) == 0 {
		methods = def.AllowMethods
	}

	headers := lo.Uniq(lo.FilterMap(o.AllowHeaders, func(h string, _ int) (string, bool) {
		h = http.CanonicalHeaderKey(strings.TrimSpace(h))
		return h, h != ""
	}))
	if len(headers) == 0 {
		headers = def.AllowHeaders
	}

	return Options{
		AllowOrigin:  origin,
		AllowMethods: methods,
		AllowHeaders: headers,
	}
}

// Handler は next に処理を委譲する前にCORSヘッダーを設定する。
// next が書き込む前にヘッダーを設定するため、エラーレスポンスにも付与される。
func Handler(next http.Handler, opts Options) http.Handler {
	o := opts.normalize()
	methods := strings.Join(o.AllowMethods, ", ")
	headers := strings.Join(o.AllowHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set(HeaderAllowOrigin, o.AllowOrigin)
		h.Set(HeaderAllowMethods, methods)
		h.Set(HeaderAllowHeaders, headers)

		next.ServeHTTP(w, r)
	})
}
