package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/visdata-app/visdata/internal/filestore"
	"github.com/visdata-app/visdata/internal/model"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
	"github.com/visdata-app/visdata/internal/pkg/timeutil"
	"github.com/visdata-app/visdata/internal/repo"
	"github.com/visdata-app/visdata/internal/tabular"
)

type DatasetService struct {
	files *repo.FileRepo
	store filestore.Store
}

func NewDatasetService(files *repo.FileRepo, store filestore.Store) *DatasetService {
	return &DatasetService{files: files, store: store}
}

// authorize fetches the file and applies the ownership guard. The
// existence check runs first so a nonexistent id yields 404 like any
// other REST resource, and only a real record owned by someone else
// yields 403.
func (s *DatasetService) authorize(ctx context.Context, userID, fileID int64) (*model.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != userID {
		return nil, appErr.ErrForbidden
	}
	return file, nil
}

func (s *DatasetService) Upload(ctx context.Context, userID int64, filename string, r io.ReadSeeker, size int64) (*model.File, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, appErr.ErrInvalid
	}
	key := buildStorageKey(userID, ext)
	if err := s.store.Save(ctx, key, r, size); err != nil {
		return nil, err
	}
	file := &model.File{
		ID:         newID(),
		OwnerID:    userID,
		Filename:   filename,
		StorageKey: key,
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logutil.GetLogger(ctx).Warn("failed to remove stored object after insert failure",
				zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return file, nil
}

func (s *DatasetService) List(ctx context.Context, userID int64) ([]model.File, error) {
	return s.files.ListByOwner(ctx, userID)
}

func (s *DatasetService) Get(ctx context.Context, userID, fileID int64) (*model.File, error) {
	return s.authorize(ctx, userID, fileID)
}

// Data parses the stored dataset into columns plus up to the row cap,
// after the ownership guard passes.
func (s *DatasetService) Data(ctx context.Context, userID, fileID int64) (*tabular.Table, error) {
	file, err := s.authorize(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	reader, err := s.store.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	table, err := tabular.Parse(reader, file.Filename)
	if errors.Is(err, tabular.ErrUnsupportedFormat) {
		return nil, appErr.ErrInvalid
	}
	return table, err
}

// Delete removes the stored object best-effort, then the row. A failed
// object delete is logged but does not keep the metadata around.
func (s *DatasetService) Delete(ctx context.Context, userID, fileID int64) error {
	file, err := s.authorize(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		logutil.GetLogger(ctx).Warn("failed to delete stored object",
			zap.String("key", file.StorageKey), zap.Error(err))
	}
	return s.files.Delete(ctx, file.ID)
}

func buildStorageKey(userID int64, ext string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d_%s%s", userID, hex.EncodeToString(buf), ext)
}
