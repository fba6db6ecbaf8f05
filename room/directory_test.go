package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Directory_MirrorsUsersCollection(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	req.NoError(s.Set("users/u1", map[string]any{"name": "Nour", "avatar": "n.png", "coins": int64(10)}, false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := NewDirectory(s, slog.Default())
	go func() { _ = dir.Run(ctx) }()

	req.Eventually(func() bool {
		u, ok := dir.Lookup("u1")
		return ok && u.Name == "Nour" && u.Coins == 10
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(s.Set("users/u2", map[string]any{"name": "Sami"}, false))
	req.Eventually(func() bool {
		return dir.Count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := dir.Lookup("ghost")
	req.False(ok)
}
