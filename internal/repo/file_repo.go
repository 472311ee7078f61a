package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/visdata-app/visdata/internal/model"
	"github.com/visdata-app/visdata/internal/pkg/dbutil"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
)

var fileColumns = []string{"id", "owner_id", "filename", "storage_key", "ctime"}

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":          file.ID,
		"owner_id":    file.OwnerID,
		"filename":    file.Filename,
		"storage_key": file.StorageKey,
		"ctime":       file.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetByID deliberately does not filter by owner: the ownership guard in
// the service layer needs to tell a missing record (404) apart from a
// record owned by someone else (403).
func (r *FileRepo) GetByID(ctx context.Context, fileID int64) (*model.File, error) {
	sqlStr, args, err := builder.BuildSelect("files", map[string]interface{}{"id": fileID}, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var file model.File
	if err := rows.Scan(&file.ID, &file.OwnerID, &file.Filename, &file.StorageKey, &file.Ctime); err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.File, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	files := make([]model.File, 0)
	for rows.Next() {
		var file model.File
		if err := rows.Scan(&file.ID, &file.OwnerID, &file.Filename, &file.StorageKey, &file.Ctime); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (r *FileRepo) Delete(ctx context.Context, fileID int64) error {
	sqlStr, args, err := builder.BuildDelete("files", map[string]interface{}{"id": fileID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListStorageKeys returns every storage key referenced in the files
// table; used by the orphan-sweep job.
func (r *FileRepo) ListStorageKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT storage_key FROM files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}
