package core

import "runtime"

// currentGID returns the id of the calling goroutine, parsed from the first
// line of its stack header ("goroutine 123 [running]:"). The runtime does not
// expose goroutine ids on purpose; we use them only as opaque identity tokens
// to answer "am I the owner goroutine?", never for scheduling decisions.
func currentGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]

	var id uint64
	for i := len("goroutine "); i < len(b); i++ {
		if b[i] >= '0' && b[i] <= '9' {
			id = id*10 + uint64(b[i]-'0')
		} else {
			break
		}
	}
	return id
}
