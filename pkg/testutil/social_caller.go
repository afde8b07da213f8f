package testutil

import "context"

// MockSocialCaller implements client.SocialCaller. The zero value answers
// yes to everything except the fast-path privilege.
type MockSocialCaller struct {
	IsOfficialPostFunc       func(ctx context.Context, postID string) (bool, error)
	IsFollowingFunc          func(ctx context.Context, userID string) (bool, error)
	HasFastPathPrivilegeFunc func(ctx context.Context, userID string) (bool, error)
}

func (m *MockSocialCaller) IsOfficialPost(ctx context.Context, postID string) (bool, error) {
	if m.IsOfficialPostFunc != nil {
		return m.IsOfficialPostFunc(ctx, postID)
	}

	return true, nil
}

func (m *MockSocialCaller) IsFollowing(ctx context.Context, userID string) (bool, error) {
	if m.IsFollowingFunc != nil {
		return m.IsFollowingFunc(ctx, userID)
	}

	return true, nil
}

func (m *MockSocialCaller) HasFastPathPrivilege(ctx context.Context, userID string) (bool, error) {
	if m.HasFastPathPrivilegeFunc != nil {
		return m.HasFastPathPrivilegeFunc(ctx, userID)
	}

	return false, nil
}
