package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/visdata-app/visdata/internal/filestore"
	"github.com/visdata-app/visdata/internal/repo"
)

// UploadSweepJob removes stored objects that no file record references
// anymore, e.g. leftovers from an upload that failed between the object
// write and the metadata insert. Only objects older than maxAge are
// touched so in-flight uploads are never swept. Stores that cannot
// enumerate their objects are skipped.
type UploadSweepJob struct {
	files  *repo.FileRepo
	store  filestore.Store
	maxAge time.Duration
}

func NewUploadSweepJob(files *repo.FileRepo, store filestore.Store, maxAge time.Duration) *UploadSweepJob {
	return &UploadSweepJob{files: files, store: store, maxAge: maxAge}
}

func (j *UploadSweepJob) Name() string {
	return "upload_sweep"
}

func (j *UploadSweepJob) Run(ctx context.Context) error {
	lister, ok := j.store.(filestore.Lister)
	if !ok {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	objects, err := lister.List(ctx)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return nil
	}
	referenced, err := j.files.ListStorageKeys(ctx)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, object := range objects {
		if _, ok := referenced[object.Key]; ok {
			continue
		}
		if object.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, object.Key); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete orphan object",
				zap.String("key", object.Key), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("orphan objects removed", zap.Int("count", removed))
	}
	return nil
}
