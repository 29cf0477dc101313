//go:build !windows

package refresh

import (
	"os"
	"syscall"
)

func defaultFocusSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
