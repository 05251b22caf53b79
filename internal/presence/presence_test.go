package presence_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/presence"
	"github.com/spck/arcade-backend/internal/registry"
)

type fakeConn struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(domain.Event))
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) byType(eventType string) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []domain.Event
	for _, e := range c.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

type fakeFriendLoader struct {
	mu        sync.Mutex
	relations map[string][]domain.Friend
	calls     int
	err       error
}

func (f *fakeFriendLoader) ListFriends(ctx context.Context, username string) ([]domain.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.relations[username], nil
}

func confirmed(username string) domain.Friend {
	return domain.Friend{Username: username, Status: domain.StatusFriends}
}

func pending(username string) domain.Friend {
	return domain.Friend{Username: username, Status: domain.StatusPendingSent}
}

func TestHandleConnectNotifiesOnlineFriendsOnly(t *testing.T) {
	reg := registry.New()
	loader := &fakeFriendLoader{relations: map[string][]domain.Friend{
		"alice": {confirmed("bob"), confirmed("carol"), pending("dave")},
	}}
	notifier := presence.NewNotifier(loader, reg)

	bobConn := &fakeConn{}
	daveConn := &fakeConn{}
	aliceConn := &fakeConn{}
	reg.Register("bob", bobConn)
	reg.Register("dave", daveConn)
	reg.Register("alice", aliceConn)

	notifier.HandleConnect(context.Background(), "alice")

	// Bob is a confirmed online friend: notified.
	bobEvents := bobConn.byType("friend:online")
	require.Len(t, bobEvents, 1)

	// Dave is online but only pending: not notified.
	assert.Empty(t, daveConn.byType("friend:online"))

	// Alice gets the snapshot of online confirmed friends (carol is
	// offline so only bob appears).
	snapshots := aliceConn.byType("friend:list_online")
	require.Len(t, snapshots, 1)
	assert.Equal(t, []string{"bob"}, snapshots[0].Payload)
}

func TestHandleDisconnectNotifiesFriends(t *testing.T) {
	reg := registry.New()
	loader := &fakeFriendLoader{relations: map[string][]domain.Friend{
		"alice": {confirmed("bob")},
	}}
	notifier := presence.NewNotifier(loader, reg)

	bobConn := &fakeConn{}
	reg.Register("bob", bobConn)

	notifier.HandleDisconnect(context.Background(), "alice")

	events := bobConn.byType("friend:offline")
	require.Len(t, events, 1)
}

func TestFriendListIsReReadEveryTime(t *testing.T) {
	reg := registry.New()
	loader := &fakeFriendLoader{relations: map[string][]domain.Friend{}}
	notifier := presence.NewNotifier(loader, reg)

	ctx := context.Background()
	notifier.HandleConnect(ctx, "alice")
	notifier.HandleDisconnect(ctx, "alice")
	notifier.HandleOnlineListRequest(ctx, "alice")

	assert.Equal(t, 3, loader.calls, "presence must never cache the friend list")
}

func TestLoaderFailureDegradesToNoNotifications(t *testing.T) {
	reg := registry.New()
	loader := &fakeFriendLoader{err: errors.New("db down")}
	notifier := presence.NewNotifier(loader, reg)

	aliceConn := &fakeConn{}
	reg.Register("alice", aliceConn)

	// Must not panic; alice still gets an empty snapshot.
	notifier.HandleConnect(context.Background(), "alice")
	snapshots := aliceConn.byType("friend:list_online")
	require.Len(t, snapshots, 1)
}
