package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/luckycast/backend/pkg/xcontext"
)

// SocialCaller answers capability questions about posts and users. It is
// backed by the social API sidecar which owns all social-graph state; this
// service never stores any of it.
type SocialCaller interface {
	IsOfficialPost(ctx context.Context, postID string) (bool, error)
	IsFollowing(ctx context.Context, userID string) (bool, error)
	HasFastPathPrivilege(ctx context.Context, userID string) (bool, error)
}

type socialCaller struct {
	client *http.Client
}

func NewSocialCaller(client *http.Client) *socialCaller {
	if client == nil {
		client = http.DefaultClient
	}

	return &socialCaller{client: client}
}

type capabilityResponse struct {
	Result bool `json:"result"`
}

// IsOfficialPost asks whether the post was authored by the configured
// official account.
func (c *socialCaller) IsOfficialPost(ctx context.Context, postID string) (bool, error) {
	return c.call(ctx, "/posts/official", url.Values{
		"post_id":    {postID},
		"account_id": {xcontext.Configs(ctx).Social.OfficialAccountID},
	})
}

// IsFollowing asks whether the user follows the configured official account.
func (c *socialCaller) IsFollowing(ctx context.Context, userID string) (bool, error) {
	return c.call(ctx, "/users/following", url.Values{
		"user_id":    {userID},
		"account_id": {xcontext.Configs(ctx).Social.OfficialAccountID},
	})
}

func (c *socialCaller) HasFastPathPrivilege(ctx context.Context, userID string) (bool, error) {
	return c.call(ctx, "/users/fastpath", url.Values{"user_id": {userID}})
}

func (c *socialCaller) call(ctx context.Context, path string, query url.Values) (bool, error) {
	cfg := xcontext.Configs(ctx).Social
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, cfg.APIEndpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("social api returned status %d", resp.StatusCode)
	}

	var body capabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}

	return body.Result, nil
}
