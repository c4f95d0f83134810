//go:build !unix && !windows

package server

func isAddrInUseErrno(error) bool {
	return false
}
