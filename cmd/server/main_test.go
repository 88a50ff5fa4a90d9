package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/christmas-fire/courier/internal/repository/user"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	req := require.New(t)

	req.True(newLogger("debug").Enabled(context.Background(), slog.LevelDebug))
	req.False(newLogger("warn").Enabled(context.Background(), slog.LevelInfo))
	req.True(newLogger("nonsense").Enabled(context.Background(), slog.LevelInfo))
	req.False(newLogger("").Enabled(context.Background(), slog.LevelDebug))
}

func TestSeedUsers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	users := user.NewMemoryRepository()

	req.NoError(seedUsers(ctx, logger, users, " alice, root:staff ,,"))

	alice, err := users.GetByID(ctx, 1)
	req.NoError(err)
	req.Equal("alice", alice.Username)
	req.False(alice.IsStaff)

	root, err := users.GetByID(ctx, 2)
	req.NoError(err)
	req.True(root.IsStaff)

	_, err = users.GetByID(ctx, 3)
	req.ErrorIs(err, user.ErrUserNotFound)

	req.Contains(out.String(), "username=root")
}
