package persistent

import (
	"context"
	"fmt"
	"time"

	"content-planner/services/planner/internal/entity"
)

// Seed is the content written on first boot.
type Seed struct {
	Posts     []entity.Post
	Channels  []entity.Channel
	Campaigns []entity.Campaign
	Schedules []entity.Schedule
}

func DefaultSeed(now time.Time) Seed {
	now = now.UTC()
	campaignID := "1"
	publishDate := now.Add(24 * time.Hour)

	return Seed{
		Posts: []entity.Post{
			{
				ID:          "1",
				Title:       "Welcome to Content Planner",
				Content:     "This is your first post. Start planning your content!",
				Status:      entity.PostStatusDraft,
				ChannelIDs:  []string{"1"},
				CampaignID:  &campaignID,
				PublishDate: &publishDate,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
		Channels: []entity.Channel{
			{ID: "1", Name: "Instagram", Type: entity.ChannelTypeSocial, Color: "#E4405F"},
			{ID: "2", Name: "Twitter", Type: entity.ChannelTypeSocial, Color: "#1DA1F2"},
			{ID: "3", Name: "LinkedIn", Type: entity.ChannelTypeProfessional, Color: "#0077B5"},
			{ID: "4", Name: "Blog", Type: entity.ChannelTypeContent, Color: "#FF6B6B"},
		},
		Campaigns: []entity.Campaign{
			{ID: "1", Name: "Q1 Marketing Campaign", Description: "First quarter marketing initiatives", Status: entity.CampaignStatusActive},
			{ID: "2", Name: "Product Launch", Description: "New product announcement campaign", Status: entity.CampaignStatusPlanning},
		},
		Schedules: []entity.Schedule{},
	}
}

func (s Seed) documents() (map[entity.Kind][]byte, error) {
	docs := make(map[entity.Kind][]byte, len(entity.Kinds))
	var err error
	if docs[entity.KindPost], err = encodeRecords(entity.KindPost, s.Posts); err != nil {
		return nil, err
	}
	if docs[entity.KindChannel], err = encodeRecords(entity.KindChannel, s.Channels); err != nil {
		return nil, err
	}
	if docs[entity.KindCampaign], err = encodeRecords(entity.KindCampaign, s.Campaigns); err != nil {
		return nil, err
	}
	if docs[entity.KindSchedule], err = encodeRecords(entity.KindSchedule, s.Schedules); err != nil {
		return nil, err
	}
	return docs, nil
}

// Initialize writes the seed for every kind that has no document yet and
// returns the kinds it seeded. Existing documents are never touched.
func Initialize(ctx context.Context, store Store, seed Seed) ([]entity.Kind, error) {
	docs, err := seed.documents()
	if err != nil {
		return nil, err
	}

	var seeded []entity.Kind
	for _, kind := range entity.Kinds {
		doc := docs[kind]
		wrote := false
		err := store.Mutate(ctx, kind, func(_ []byte, exists bool) ([]byte, error) {
			if exists {
				return nil, nil
			}
			wrote = true
			return doc, nil
		})
		if err != nil {
			return seeded, fmt.Errorf("failed to initialize %s collection: %w", kind, err)
		}
		if wrote {
			seeded = append(seeded, kind)
		}
	}
	return seeded, nil
}

// Reset overwrites every collection with the seed.
func Reset(ctx context.Context, store Store, seed Seed) error {
	docs, err := seed.documents()
	if err != nil {
		return err
	}
	for _, kind := range entity.Kinds {
		if err := store.Save(ctx, kind, docs[kind]); err != nil {
			return fmt.Errorf("failed to reset %s collection: %w", kind, err)
		}
	}
	return nil
}
