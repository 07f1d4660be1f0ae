//go:build !windows

package mpv

import (
	"context"
	"net"

	"github.com/PizzaHomicide/reelcore/internal/log"
)

// dialSocket connects to mpv's unix domain socket.
func dialSocket(ctx context.Context, path string) (net.Conn, error) {
	log.Trace("Connecting to unix socket", "path", path)
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
