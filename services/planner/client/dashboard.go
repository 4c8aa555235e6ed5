package client

import (
	"context"
	"time"

	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

// DashboardView is everything a planner screen renders for one set of filters.
type DashboardView struct {
	Filters   query.PostFilters
	Posts     []entity.Post
	Calendar  []query.DateGroup
	Summary   query.Summary
	Channels  map[string]entity.Channel
	Campaigns map[string]entity.Campaign
	// Err is the failure of the last posts fetch. Posts then hold the last
	// good result, if there was one.
	Err       error
	UpdatedAt time.Time
}

// Dashboard derives views from the cached, unfiltered post list. Filters run
// locally, so changing them never costs a request.
type Dashboard struct {
	client *Client
	now    func() time.Time
}

func NewDashboard(client *Client) *Dashboard {
	return &Dashboard{client: client, now: time.Now}
}

func (d *Dashboard) Load(ctx context.Context, filters query.PostFilters) (DashboardView, error) {
	view := DashboardView{Filters: filters, UpdatedAt: d.now()}

	all, err := d.client.Posts(ctx, query.PostFilters{})
	if err != nil {
		cached, _, found, peekErr := d.client.CachedPosts(ctx, query.PostFilters{})
		if !found || peekErr != nil || cached == nil {
			return view, err
		}
		all = cached
		view.Err = err
	}

	channels, err := d.client.Channels(ctx)
	if err != nil {
		return view, err
	}
	campaigns, err := d.client.Campaigns(ctx)
	if err != nil {
		return view, err
	}

	view.Posts = query.FilterPosts(all, filters)
	view.Calendar = query.GroupByDate(view.Posts)
	view.Summary = query.Summarize(view.Posts, d.now())
	view.Channels = make(map[string]entity.Channel, len(channels))
	for _, channel := range channels {
		view.Channels[channel.ID] = channel
	}
	view.Campaigns = make(map[string]entity.Campaign, len(campaigns))
	for _, campaign := range campaigns {
		view.Campaigns[campaign.ID] = campaign
	}
	return view, nil
}

// Watch renders the view once and again after every cache invalidation until
// ctx is done. Invalidations that arrive during a render are coalesced.
func (d *Dashboard) Watch(ctx context.Context, filters query.PostFilters, render func(DashboardView, error)) error {
	changed := make(chan struct{}, 1)
	unsubscribe := d.client.Cache().Subscribe(func(event tagcache.Event) {
		if event.Type != tagcache.EventStale {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	render(d.Load(ctx, filters))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			render(d.Load(ctx, filters))
		}
	}
}
