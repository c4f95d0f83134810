package server

import "errors"

var (
	ErrAddressInUse   = errors.New("address already in use")
	ErrAlreadyStarted = errors.New("server already started")
)

// IsAddressInUse はエラーがポートの競合によるものかを、メッセージではなくエラーコードで判定する
func IsAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAddressInUse) || isAddrInUseErrno(err)
}
