//go:build windows

package mpv

import (
	"context"
	"net"
	"time"

	"gopkg.in/natefinch/npipe.v2"

	"github.com/PizzaHomicide/reelcore/internal/log"
)

// dialSocket connects to mpv's named pipe.
func dialSocket(ctx context.Context, path string) (net.Conn, error) {
	log.Trace("Connecting to named pipe", "path", path)
	var (
		conn *npipe.PipeConn
		err  error
	)
	if deadline, ok := ctx.Deadline(); ok {
		conn, err = npipe.DialTimeout(path, time.Until(deadline))
	} else {
		conn, err = npipe.Dial(path)
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
