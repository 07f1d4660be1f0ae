package mpv

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// SocketPath returns a fresh IPC socket path for one mpv instance.  MPV_IPC_SOCKET overrides it, which only makes sense
// when a single engine is alive at a time.
func SocketPath() string {
	if path := os.Getenv("MPV_IPC_SOCKET"); path != "" {
		return path
	}

	name := "reelcore-mpv-" + uuid.NewString()[:8]
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}

	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name+".sock")
}
