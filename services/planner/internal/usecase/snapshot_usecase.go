package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"content-planner/services/planner/internal/entity"
)

// Snapshot is a point in time copy of every collection. Collections are read
// one after another, not in one transaction.
type Snapshot struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Posts      []entity.Post     `json:"posts"`
	Channels   []entity.Channel  `json:"channels"`
	Campaigns  []entity.Campaign `json:"campaigns"`
	Schedules  []entity.Schedule `json:"schedules"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// SnapshotUploader is satisfied by the S3 client.
type SnapshotUploader interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type SnapshotUseCase interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Export(ctx context.Context) (ExportResult, error)
}

type snapshotUseCase struct {
	env      *Env
	uploader SnapshotUploader
}

// NewSnapshotUseCase accepts a nil uploader; Export then fails with
// ErrExportUnavailable.
func NewSnapshotUseCase(env *Env, uploader SnapshotUploader) SnapshotUseCase {
	return &snapshotUseCase{env: env, uploader: uploader}
}

func (uc *snapshotUseCase) Snapshot(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{ExportedAt: uc.env.now()}
	var err error

	if snapshot.Posts, err = uc.env.Repos.Posts.ReadAll(ctx); err != nil {
		return Snapshot{}, err
	}
	if snapshot.Channels, err = uc.env.Repos.Channels.ReadAll(ctx); err != nil {
		return Snapshot{}, err
	}
	if snapshot.Campaigns, err = uc.env.Repos.Campaigns.ReadAll(ctx); err != nil {
		return Snapshot{}, err
	}
	if snapshot.Schedules, err = uc.env.Repos.Schedules.ReadAll(ctx); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (uc *snapshotUseCase) Export(ctx context.Context) (ExportResult, error) {
	if uc.uploader == nil {
		return ExportResult{}, ErrExportUnavailable
	}

	snapshot, err := uc.Snapshot(ctx)
	if err != nil {
		return ExportResult{}, err
	}
	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s.json", snapshot.ExportedAt.Format("20060102T150405Z"))
	url, err := uc.uploader.UploadFile(ctx, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	uc.env.Logger.Info("Exported snapshot to %s", key)
	return ExportResult{Key: key, URL: url}, nil
}
