package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visdata-app/visdata/internal/model"
	appErr "github.com/visdata-app/visdata/internal/pkg/errors"
	"github.com/visdata-app/visdata/internal/pkg/timeutil"
	"github.com/visdata-app/visdata/internal/repo"
	"github.com/visdata-app/visdata/test/testutil"
)

func randomUser(t *testing.T) *model.User {
	t.Helper()
	buf := make([]byte, 14)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	id := int64(binary.BigEndian.Uint64(buf[6:]) &^ (uint64(1) << 63))
	now := timeutil.NowUnix()
	return &model.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", hex.EncodeToString(buf)),
		PasswordHash: "argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Ctime:        now,
		Mtime:        now,
	}
}

func TestUserRepoCreateAndGet(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()

	user := randomUser(t)
	require.NoError(t, users.Create(ctx, user))

	byEmail, err := users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)
	require.Equal(t, user.PasswordHash, byEmail.PasswordHash)

	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, byID.Email)
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()

	user := randomUser(t)
	require.NoError(t, users.Create(ctx, user))

	dup := randomUser(t)
	dup.Email = user.Email
	err := users.Create(ctx, dup)
	require.ErrorIs(t, err, appErr.ErrConflict)

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = $1", user.Email)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func TestUserRepoNotFound(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	_, err := users.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = users.GetByID(context.Background(), 424242)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
