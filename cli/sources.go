package cli

import (
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// source is one resolved input: a display name (used for format
// auto-detection and error messages), its content reader, and the
// resolved path that -i rewrites.
type source struct {
	name   string
	reader io.Reader
	path   string // empty for stdin; the resolved path otherwise
}

type fileKey struct {
	dev uint64
	ino uint64
}

const stdinSource = "-"

// resolveSources opens every named file in order, deduplicating by
// device/inode (so the same file reached via two different paths is
// only read once) and moving stdin to the end regardless of where
// "-" appeared in the argument list.
func resolveSources(names []string, stdin io.Reader) ([]source, error) {
	var out []source
	seen := make(map[fileKey]struct{})
	wantStdin := false

	for _, name := range names {
		if name == stdinSource {
			wantStdin = true
			continue
		}
		abs, err := filepath.Abs(name)
		if err != nil {
			return nil, err
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			resolved = abs
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return nil, err
		}
		if key, ok := makeFileKey(info); ok {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		f, err := os.Open(resolved)
		if err != nil {
			return nil, err
		}
		out = append(out, source{name: name, reader: f, path: resolved})
	}

	if wantStdin {
		out = append(out, source{name: stdinSource, reader: stdin})
	}
	return out, nil
}

func makeFileKey(info os.FileInfo) (fileKey, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}
	return fileKey{dev: stat.Dev, ino: stat.Ino}, true
}
