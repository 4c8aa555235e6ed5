package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"content-planner/pkg/config"
	"content-planner/pkg/logger"
	"content-planner/pkg/queue"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/client"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var (
		apiURL   = flag.String("api", cfg.APIBaseURL, "planner API base URL")
		view     = flag.String("view", "summary", "what to print: summary, list or calendar")
		status   = flag.String("status", "", "comma separated post statuses")
		channel  = flag.String("channel", "", "comma separated channel IDs")
		campaign = flag.String("campaign", "", "comma separated campaign IDs")
		search   = flag.String("search", "", "text to look for in title or content")
		follow   = flag.Bool("follow", false, "re-render when the data changes")
		interval = flag.Duration("interval", 30*time.Second, "refresh interval with -follow when RabbitMQ is not configured")
	)
	flag.Parse()

	log := logger.New()
	filters := query.PostFilters{
		Search:      *search,
		ChannelIDs:  splitList(*channel),
		CampaignIDs: splitList(*campaign),
	}
	for _, s := range splitList(*status) {
		filters.Statuses = append(filters.Statuses, entity.PostStatus(s))
	}

	render, err := renderer(*view, os.Stdout)
	if err != nil {
		log.Error("%v", err)
		os.Exit(2)
	}

	api := client.New(*apiURL, client.WithLogger(log))
	dashboard := client.NewDashboard(api)

	if !*follow {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		v, err := dashboard.Load(ctx, filters)
		if err != nil {
			log.Error("Failed to load dashboard: %v", err)
			os.Exit(1)
		}
		render(v)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RabbitMQEnabled() {
		queueClient, err := queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v", err)
			os.Exit(1)
		}
		defer queueClient.Close()
		err = queueClient.ConsumeInvalidations(func(event queue.InvalidationEvent) error {
			return api.Invalidate(ctx, event.Tags...)
		})
		if err != nil {
			log.Error("Failed to consume change events: %v", err)
			os.Exit(1)
		}
	} else {
		go poll(ctx, api, *interval)
	}

	err = dashboard.Watch(ctx, filters, func(v client.DashboardView, err error) {
		if err != nil {
			log.Error("Failed to load dashboard: %v", err)
			return
		}
		fmt.Fprintf(os.Stdout, "\n== %s ==\n", v.UpdatedAt.Format(time.RFC1123))
		render(v)
	})
	if err != nil && err != context.Canceled {
		log.Error("Dashboard stopped: %v", err)
	}
}

// poll invalidates every list so the next render fetches fresh data.
func poll(ctx context.Context, api *client.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tags := make([]tagcache.Tag, 0, len(entity.Kinds))
			for _, kind := range entity.Kinds {
				tags = append(tags, kind.ListTag())
			}
			_ = api.Invalidate(ctx, tags...)
		}
	}
}

func renderer(view string, out io.Writer) (func(client.DashboardView), error) {
	switch view {
	case "summary":
		return func(v client.DashboardView) { printSummary(out, v) }, nil
	case "list":
		return func(v client.DashboardView) { printList(out, v) }, nil
	case "calendar":
		return func(v client.DashboardView) { printCalendar(out, v) }, nil
	}
	return nil, fmt.Errorf("unknown view %q, want summary, list or calendar", view)
}

func printSummary(out io.Writer, v client.DashboardView) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	staleNote(w, v)
	fmt.Fprintf(w, "Total posts\t%d\n", v.Summary.Total)
	fmt.Fprintf(w, "Upcoming\t%d\n", v.Summary.Upcoming)
	for _, status := range entity.PostStatuses {
		fmt.Fprintf(w, "%s\t%d\n", status, v.Summary.ByStatus[status])
	}

	ids := make([]string, 0, len(v.Summary.ChannelUsage))
	for id := range v.Summary.ChannelUsage {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return v.Summary.ChannelUsage[ids[i]] > v.Summary.ChannelUsage[ids[j]] ||
			(v.Summary.ChannelUsage[ids[i]] == v.Summary.ChannelUsage[ids[j]] && ids[i] < ids[j])
	})
	for _, id := range ids {
		fmt.Fprintf(w, "channel %s\t%d\n", channelName(v, id), v.Summary.ChannelUsage[id])
	}
}

func printList(out io.Writer, v client.DashboardView) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	staleNote(w, v)
	fmt.Fprintln(w, "DATE\tSTATUS\tTITLE\tCHANNELS\tCAMPAIGN")
	for _, post := range v.Posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			query.DateKey(post.EffectiveDate()),
			post.Status,
			post.Title,
			channelNames(v, post.ChannelIDs),
			campaignName(v, post.CampaignID),
		)
	}
}

func printCalendar(out io.Writer, v client.DashboardView) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	staleNote(w, v)
	for _, group := range v.Calendar {
		fmt.Fprintf(w, "%s\n", group.Date)
		for _, post := range group.Posts {
			fmt.Fprintf(w, "\t%s\t%s\t%s\n", post.Status, post.Title, channelNames(v, post.ChannelIDs))
		}
	}
}

func staleNote(w io.Writer, v client.DashboardView) {
	if v.Err != nil {
		fmt.Fprintf(w, "(showing cached posts, refresh failed: %v)\n", v.Err)
	}
}

func channelName(v client.DashboardView, id string) string {
	if channel, ok := v.Channels[id]; ok {
		return channel.Name
	}
	return id
}

func channelNames(v client.DashboardView, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, channelName(v, id))
	}
	return strings.Join(names, ", ")
}

func campaignName(v client.DashboardView, id *string) string {
	if id == nil {
		return "-"
	}
	if campaign, ok := v.Campaigns[*id]; ok {
		return campaign.Name
	}
	return *id
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
