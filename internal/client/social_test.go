package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luckycast/backend/pkg/testutil"
	"github.com/luckycast/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newSocialTestContext(t *testing.T, handler http.HandlerFunc) context.Context {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ctx := testutil.MockContext()
	cfg := xcontext.Configs(ctx)
	cfg.Social.APIEndpoint = server.URL
	return xcontext.WithConfigs(ctx, cfg)
}

func Test_socialCaller_IsOfficialPost(t *testing.T) {
	var gotPath string
	var gotPostID, gotAccountID string
	ctx := newSocialTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPostID = r.URL.Query().Get("post_id")
		gotAccountID = r.URL.Query().Get("account_id")
		w.Write([]byte(`{"result": true}`))
	})

	caller := NewSocialCaller(nil)
	official, err := caller.IsOfficialPost(ctx, "post123")
	require.NoError(t, err)
	require.True(t, official)
	require.Equal(t, "/posts/official", gotPath)
	require.Equal(t, "post123", gotPostID)
	require.Equal(t, "9000", gotAccountID)
}

func Test_socialCaller_IsFollowing(t *testing.T) {
	var gotUserID, gotAccountID string
	ctx := newSocialTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.URL.Query().Get("user_id")
		gotAccountID = r.URL.Query().Get("account_id")
		w.Write([]byte(`{"result": false}`))
	})

	caller := NewSocialCaller(nil)
	following, err := caller.IsFollowing(ctx, testutil.User1)
	require.NoError(t, err)
	require.False(t, following)
	require.Equal(t, testutil.User1, gotUserID)
	require.Equal(t, "9000", gotAccountID)
}

func Test_socialCaller_errorOnBadStatus(t *testing.T) {
	ctx := newSocialTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	caller := NewSocialCaller(nil)
	_, err := caller.HasFastPathPrivilege(ctx, testutil.User1)
	require.Error(t, err)
}
