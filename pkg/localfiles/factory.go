package localfiles

import (
	"net"
	"os"
	"time"
)

// NewProvider returns a RemoteProvider if the daemon answers on socketPath,
// otherwise local.
//
// Callers don't need to know whether the daemon is running: the bridge
// treats both the same way.
func NewProvider(socketPath string, local Provider) Provider {
	if DaemonAvailable(socketPath) {
		return NewRemoteProvider(socketPath)
	}
	return local
}

// DaemonAvailable reports whether something accepts connections on socketPath.
func DaemonAvailable(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
