package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/visdata-app/visdata/internal/chat"
)

// ChatStatsJob periodically reports how many conversation sessions are
// resident; the store itself evicts by size and TTL.
type ChatStatsJob struct {
	sessions *chat.Store
}

func NewChatStatsJob(sessions *chat.Store) *ChatStatsJob {
	return &ChatStatsJob{sessions: sessions}
}

func (j *ChatStatsJob) Name() string {
	return "chat_stats"
}

func (j *ChatStatsJob) Run(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("chat sessions resident", zap.Int("count", j.sessions.ActiveSessions()))
	return nil
}
