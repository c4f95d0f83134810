package browser

import (
	"io"

	pkgbrowser "github.com/pkg/browser"
)

// 起動コマンドの出力がオペレーター向けのメッセージに混ざらないようにする
func init() {
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
}

// Opener は指定したURLをブラウザで開く
//
//go:generate mockgen -source opener.go -destination mock/opener.go
type Opener interface {
	Open(url string) error
}

var _ Opener = System{}

// System はOS既定のブラウザを起動する
type System struct{}

func (System) Open(url string) error {
	return pkgbrowser.OpenURL(url)
}
