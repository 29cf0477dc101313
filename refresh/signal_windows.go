//go:build windows

package refresh

import "os"

// Windows has no SIGUSR1. Applications on this platform should inject
// their own EventSource (e.g. driven by a named pipe or a UI event) rather
// than rely on SignalFocusSource, which never fires here.
func defaultFocusSignals() []os.Signal {
	return nil
}
