package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/clipwright/clipwright/internal/domain"
)

// FileEmitter copies the finished video into a local output directory. Used
// by the CLI and by workers running without object storage.
type FileEmitter struct {
	OutputDir string
}

func (e *FileEmitter) Emit(ctx context.Context, job domain.Job, video domain.RenderedVideo) (domain.RenderedVideo, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("%w: create output dir: %v", domain.ErrResource, err)
	}
	dst := filepath.Join(e.OutputDir, sanitizePathToken(job.ID)+".mp4")
	if err := copyFile(video.Path, dst); err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("%w: write output: %v", domain.ErrResource, err)
	}
	out := video
	out.Path = dst
	return out, nil
}

// uploader is the slice of the object-store client the emitter needs.
type uploader interface {
	UploadFile(ctx context.Context, objectKey, filePath, contentType string) error
}

// ObjectStoreEmitter uploads the finished video to object storage under
// outputs/<jobID>/video.mp4 and returns the object key in place of a path.
type ObjectStoreEmitter struct {
	Store uploader
}

func (e *ObjectStoreEmitter) Emit(ctx context.Context, job domain.Job, video domain.RenderedVideo) (domain.RenderedVideo, error) {
	key := ObjectKeyFor(job.ID)
	if err := e.Store.UploadFile(ctx, key, video.Path, "video/mp4"); err != nil {
		return domain.RenderedVideo{}, fmt.Errorf("%w: upload video: %v", domain.ErrUpstream, err)
	}
	out := video
	out.Path = key
	return out, nil
}

// ObjectKeyFor is the canonical object-store key for a job's rendered video.
func ObjectKeyFor(jobID string) string {
	return "outputs/" + sanitizePathToken(jobID) + "/video.mp4"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
