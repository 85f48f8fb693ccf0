package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the private temp-file namespace for one job run. Nothing in
// it is shared across jobs, and Close removes the whole tree; leaked media
// files are the main operational risk of repeated runs.
type Workspace struct {
	root string
}

func NewWorkspace(baseDir, jobID string) (*Workspace, error) {
	root := filepath.Join(baseDir, "clipwright-"+sanitizePathToken(jobID))
	for _, dir := range []string{root, filepath.Join(root, "audio"), filepath.Join(root, "visuals")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}
	return &Workspace{root: root}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

func (w *Workspace) AudioDir() string {
	return filepath.Join(w.root, "audio")
}

func (w *Workspace) VisualsDir() string {
	return filepath.Join(w.root, "visuals")
}

func (w *Workspace) Close() error {
	return os.RemoveAll(w.root)
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
