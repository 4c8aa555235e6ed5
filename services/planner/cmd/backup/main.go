package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/s3"
	"content-planner/services/planner/internal/repo/persistent"
	"content-planner/services/planner/internal/usecase"
)

const snapshotPrefix = "snapshots/"

func main() {
	var (
		keep = flag.Int("keep", 0, "number of snapshots to keep after the export, 0 keeps all")
		list = flag.Bool("list", false, "list stored snapshots instead of exporting")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if !cfg.S3Enabled() {
		log.Error("S3 is not configured, set AWS_ACCESS_KEY_ID or AWS_ENDPOINT")
		panic(usecase.ErrExportUnavailable)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *list {
		objects, err := s3Client.ListFiles(ctx, snapshotPrefix)
		if err != nil {
			log.Error("Failed to list snapshots: %v", err)
			panic(err)
		}
		for _, obj := range objects {
			fmt.Printf("%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.UTC().Format(time.RFC3339))
		}
		return
	}

	store, err := persistent.Open(cfg)
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		panic(err)
	}
	defer store.Close()

	env := usecase.NewEnv(persistent.NewRepositories(store), nil, nil, usecase.DefaultDeletePolicies(), log)
	result, err := usecase.NewSnapshotUseCase(env, s3Client).Export(ctx)
	if err != nil {
		log.Error("Failed to export snapshot: %v", err)
		panic(err)
	}
	log.Info("Snapshot stored at %s", result.URL)

	if *keep > 0 {
		if err := prune(ctx, s3Client, *keep, log); err != nil {
			log.Error("Failed to prune snapshots: %v", err)
			panic(err)
		}
	}
}

// prune deletes all but the newest keep snapshots. Keys sort by export time.
func prune(ctx context.Context, client *s3.Client, keep int, log *logger.Logger) error {
	objects, err := client.ListFiles(ctx, snapshotPrefix)
	if err != nil {
		return err
	}
	if len(objects) <= keep {
		return nil
	}
	for _, obj := range objects[:len(objects)-keep] {
		if err := client.DeleteFile(ctx, obj.Key); err != nil {
			return err
		}
		log.Info("Deleted old snapshot %s", obj.Key)
	}
	return nil
}
