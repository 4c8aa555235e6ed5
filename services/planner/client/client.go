// Package client talks to the planner API through a read-through cache.
//
// Every read is a tagcache query that tags its result with the records it
// holds; every write is a tagcache mutation that, on success, invalidates the
// tags it touched, so the next read of an affected query goes to the network.
//
// The record, input, patch and filter types are declared as aliases in this
// package, so callers never need to import the service's internal packages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"content-planner/pkg/logger"
	"content-planner/pkg/tagcache"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

// WithCache replaces the default in-memory cache, for example with one backed
// by Redis or built with tagcache.WithEagerRefetch.
func WithCache(cache *tagcache.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *tagcache.Cache
	logger  *logger.Logger

	posts     tagcache.QueryDef[query.PostFilters, []entity.Post]
	post      tagcache.QueryDef[string, entity.Post]
	channels  tagcache.QueryDef[struct{}, []entity.Channel]
	channel   tagcache.QueryDef[string, entity.Channel]
	campaigns tagcache.QueryDef[struct{}, []entity.Campaign]
	campaign  tagcache.QueryDef[string, entity.Campaign]
	schedules tagcache.QueryDef[ScheduleQuery, []entity.Schedule]
	schedule  tagcache.QueryDef[string, entity.Schedule]

	createPost     tagcache.MutationDef[entity.CreatePostInput, entity.Post]
	updatePost     tagcache.MutationDef[update[entity.PostPatch], entity.Post]
	deletePost     tagcache.MutationDef[string, struct{}]
	createChannel  tagcache.MutationDef[entity.CreateChannelInput, entity.Channel]
	updateChannel  tagcache.MutationDef[update[entity.ChannelPatch], entity.Channel]
	deleteChannel  tagcache.MutationDef[string, struct{}]
	createCampaign tagcache.MutationDef[entity.CreateCampaignInput, entity.Campaign]
	updateCampaign tagcache.MutationDef[update[entity.CampaignPatch], entity.Campaign]
	deleteCampaign tagcache.MutationDef[string, struct{}]
	createSchedule tagcache.MutationDef[entity.CreateScheduleInput, entity.Schedule]
	updateSchedule tagcache.MutationDef[update[entity.SchedulePatch], entity.Schedule]
	deleteSchedule tagcache.MutationDef[string, struct{}]
}

// ScheduleQuery narrows the schedule list. Dates are RFC 3339 timestamps or
// YYYY-MM-DD and are passed to the server unchanged.
type ScheduleQuery struct {
	PostID    string `json:"postId,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type update[P any] struct {
	ID    string `json:"id"`
	Patch P      `json:"patch"`
}

// New returns a client for the API under baseURL, e.g. http://localhost:3001/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = tagcache.New(tagcache.NewMemoryBackend(), tagcache.WithLogger(c.logger))
	}

	c.posts = tagcache.QueryDef[query.PostFilters, []entity.Post]{
		Endpoint: "getPosts",
		Fetch: func(ctx context.Context, filters query.PostFilters) ([]entity.Post, error) {
			var posts []entity.Post
			err := c.do(ctx, http.MethodGet, "/posts", postValues(filters), nil, &posts)
			return posts, err
		},
		ProvidesTags: func(posts []entity.Post, _ query.PostFilters) []tagcache.Tag {
			return entity.ProvidedTags(entity.KindPost, posts)
		},
	}
	c.post = getDef[entity.Post](c, "getPost", entity.KindPost, "/posts/")
	c.channels = listDef[entity.Channel](c, "getChannels", entity.KindChannel, "/channels")
	c.channel = getDef[entity.Channel](c, "getChannel", entity.KindChannel, "/channels/")
	c.campaigns = listDef[entity.Campaign](c, "getCampaigns", entity.KindCampaign, "/campaigns")
	c.campaign = getDef[entity.Campaign](c, "getCampaign", entity.KindCampaign, "/campaigns/")
	c.schedules = tagcache.QueryDef[ScheduleQuery, []entity.Schedule]{
		Endpoint: "getSchedules",
		Fetch: func(ctx context.Context, q ScheduleQuery) ([]entity.Schedule, error) {
			values := url.Values{}
			setIf(values, "postId", q.PostID)
			setIf(values, "startDate", q.StartDate)
			setIf(values, "endDate", q.EndDate)
			var schedules []entity.Schedule
			err := c.do(ctx, http.MethodGet, "/schedules", values, nil, &schedules)
			return schedules, err
		},
		ProvidesTags: func(schedules []entity.Schedule, _ ScheduleQuery) []tagcache.Tag {
			return entity.ProvidedTags(entity.KindSchedule, schedules)
		},
	}
	c.schedule = getDef[entity.Schedule](c, "getSchedule", entity.KindSchedule, "/schedules/")

	c.createPost = createDef[entity.CreatePostInput, entity.Post](c, "createPost", entity.KindPost, "/posts")
	c.updatePost = updateDef[entity.PostPatch, entity.Post](c, "updatePost", entity.KindPost, "/posts/")
	c.deletePost = deleteDef(c, "deletePost", entity.KindPost, "/posts/")
	c.createChannel = createDef[entity.CreateChannelInput, entity.Channel](c, "createChannel", entity.KindChannel, "/channels")
	c.updateChannel = updateDef[entity.ChannelPatch, entity.Channel](c, "updateChannel", entity.KindChannel, "/channels/")
	c.deleteChannel = deleteDef(c, "deleteChannel", entity.KindChannel, "/channels/")
	c.createCampaign = createDef[entity.CreateCampaignInput, entity.Campaign](c, "createCampaign", entity.KindCampaign, "/campaigns")
	c.updateCampaign = updateDef[entity.CampaignPatch, entity.Campaign](c, "updateCampaign", entity.KindCampaign, "/campaigns/")
	c.deleteCampaign = deleteDef(c, "deleteCampaign", entity.KindCampaign, "/campaigns/")
	c.createSchedule = createDef[entity.CreateScheduleInput, entity.Schedule](c, "createSchedule", entity.KindSchedule, "/schedules")
	c.updateSchedule = updateDef[entity.SchedulePatch, entity.Schedule](c, "updateSchedule", entity.KindSchedule, "/schedules/")
	c.deleteSchedule = deleteDef(c, "deleteSchedule", entity.KindSchedule, "/schedules/")

	return c
}

func (c *Client) Cache() *tagcache.Cache {
	return c.cache
}

// Invalidate applies tags reported by another process, e.g. a change event.
func (c *Client) Invalidate(ctx context.Context, tags ...tagcache.Tag) error {
	_, err := c.cache.Invalidate(ctx, tags...)
	return err
}

func (c *Client) Posts(ctx context.Context, filters query.PostFilters) ([]entity.Post, error) {
	return tagcache.Query(ctx, c.cache, c.posts, filters)
}

// CachedPosts returns the last good result of Posts without a request, with
// the error of the last fetch if it failed.
func (c *Client) CachedPosts(ctx context.Context, filters query.PostFilters) ([]entity.Post, tagcache.Entry, bool, error) {
	return tagcache.Peek(ctx, c.cache, c.posts, filters)
}

func (c *Client) Post(ctx context.Context, id string) (entity.Post, error) {
	return tagcache.Query(ctx, c.cache, c.post, id)
}

func (c *Client) Channels(ctx context.Context) ([]entity.Channel, error) {
	return tagcache.Query(ctx, c.cache, c.channels, struct{}{})
}

func (c *Client) Channel(ctx context.Context, id string) (entity.Channel, error) {
	return tagcache.Query(ctx, c.cache, c.channel, id)
}

func (c *Client) Campaigns(ctx context.Context) ([]entity.Campaign, error) {
	return tagcache.Query(ctx, c.cache, c.campaigns, struct{}{})
}

func (c *Client) Campaign(ctx context.Context, id string) (entity.Campaign, error) {
	return tagcache.Query(ctx, c.cache, c.campaign, id)
}

func (c *Client) Schedules(ctx context.Context, q ScheduleQuery) ([]entity.Schedule, error) {
	return tagcache.Query(ctx, c.cache, c.schedules, q)
}

func (c *Client) Schedule(ctx context.Context, id string) (entity.Schedule, error) {
	return tagcache.Query(ctx, c.cache, c.schedule, id)
}

// CreatePost validates the form first; an invalid form never reaches the
// network.
func (c *Client) CreatePost(ctx context.Context, input entity.CreatePostInput) (entity.Post, error) {
	if err := ValidatePostInput(input); err != nil {
		return entity.Post{}, err
	}
	return tagcache.Mutate(ctx, c.cache, c.createPost, input)
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch entity.PostPatch) (entity.Post, error) {
	return tagcache.Mutate(ctx, c.cache, c.updatePost, update[entity.PostPatch]{ID: id, Patch: patch})
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := tagcache.Mutate(ctx, c.cache, c.deletePost, id)
	return err
}

func (c *Client) CreateChannel(ctx context.Context, input entity.CreateChannelInput) (entity.Channel, error) {
	return tagcache.Mutate(ctx, c.cache, c.createChannel, input)
}

func (c *Client) UpdateChannel(ctx context.Context, id string, patch entity.ChannelPatch) (entity.Channel, error) {
	return tagcache.Mutate(ctx, c.cache, c.updateChannel, update[entity.ChannelPatch]{ID: id, Patch: patch})
}

func (c *Client) DeleteChannel(ctx context.Context, id string) error {
	_, err := tagcache.Mutate(ctx, c.cache, c.deleteChannel, id)
	return err
}

func (c *Client) CreateCampaign(ctx context.Context, input entity.CreateCampaignInput) (entity.Campaign, error) {
	return tagcache.Mutate(ctx, c.cache, c.createCampaign, input)
}

func (c *Client) UpdateCampaign(ctx context.Context, id string, patch entity.CampaignPatch) (entity.Campaign, error) {
	return tagcache.Mutate(ctx, c.cache, c.updateCampaign, update[entity.CampaignPatch]{ID: id, Patch: patch})
}

func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	_, err := tagcache.Mutate(ctx, c.cache, c.deleteCampaign, id)
	return err
}

func (c *Client) CreateSchedule(ctx context.Context, input entity.CreateScheduleInput) (entity.Schedule, error) {
	return tagcache.Mutate(ctx, c.cache, c.createSchedule, input)
}

func (c *Client) UpdateSchedule(ctx context.Context, id string, patch entity.SchedulePatch) (entity.Schedule, error) {
	return tagcache.Mutate(ctx, c.cache, c.updateSchedule, update[entity.SchedulePatch]{ID: id, Patch: patch})
}

func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	_, err := tagcache.Mutate(ctx, c.cache, c.deleteSchedule, id)
	return err
}

func listDef[T entity.Record[T]](c *Client, endpoint string, kind entity.Kind, path string) tagcache.QueryDef[struct{}, []T] {
	return tagcache.QueryDef[struct{}, []T]{
		Endpoint: endpoint,
		Fetch: func(ctx context.Context, _ struct{}) ([]T, error) {
			var records []T
			err := c.do(ctx, http.MethodGet, path, nil, nil, &records)
			return records, err
		},
		ProvidesTags: func(records []T, _ struct{}) []tagcache.Tag {
			return entity.ProvidedTags(kind, records)
		},
	}
}

func getDef[T any](c *Client, endpoint string, kind entity.Kind, path string) tagcache.QueryDef[string, T] {
	return tagcache.QueryDef[string, T]{
		Endpoint: endpoint,
		Fetch: func(ctx context.Context, id string) (T, error) {
			var record T
			err := c.do(ctx, http.MethodGet, path+url.PathEscape(id), nil, nil, &record)
			return record, err
		},
		ProvidesTags: func(_ T, id string) []tagcache.Tag {
			return []tagcache.Tag{kind.ItemTag(id)}
		},
	}
}

func createDef[I, T any](c *Client, endpoint string, kind entity.Kind, path string) tagcache.MutationDef[I, T] {
	return tagcache.MutationDef[I, T]{
		Endpoint: endpoint,
		Do: func(ctx context.Context, input I) (T, error) {
			var created T
			err := c.do(ctx, http.MethodPost, path, nil, input, &created)
			return created, err
		},
		InvalidatesTags: func(T, I) []tagcache.Tag {
			return entity.CreatedTags(kind)
		},
	}
}

func updateDef[P, T any](c *Client, endpoint string, kind entity.Kind, path string) tagcache.MutationDef[update[P], T] {
	return tagcache.MutationDef[update[P], T]{
		Endpoint: endpoint,
		Do: func(ctx context.Context, arg update[P]) (T, error) {
			var updated T
			err := c.do(ctx, http.MethodPut, path+url.PathEscape(arg.ID), nil, arg.Patch, &updated)
			return updated, err
		},
		InvalidatesTags: func(_ T, arg update[P]) []tagcache.Tag {
			return entity.ChangedTags(kind, arg.ID)
		},
	}
}

func deleteDef(c *Client, endpoint string, kind entity.Kind, path string) tagcache.MutationDef[string, struct{}] {
	return tagcache.MutationDef[string, struct{}]{
		Endpoint: endpoint,
		Do: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, c.do(ctx, http.MethodDelete, path+url.PathEscape(id), nil, nil, nil)
		},
		InvalidatesTags: func(_ struct{}, id string) []tagcache.Tag {
			return entity.ChangedTags(kind, id)
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values, body, out any) error {
	target := c.baseURL + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Fields = payload.Fields
	}
	return apiErr
}

func postValues(filters query.PostFilters) url.Values {
	values := url.Values{}
	setIf(values, "search", filters.Search)
	for _, status := range filters.Statuses {
		values.Add("status", string(status))
	}
	for _, id := range filters.ChannelIDs {
		values.Add("channelId", id)
	}
	for _, id := range filters.CampaignIDs {
		values.Add("campaignId", id)
	}
	return values
}

func setIf(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
