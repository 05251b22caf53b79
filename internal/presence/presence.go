// Package presence pushes online/offline events to a user's friends.
package presence

import (
	"context"
	"log"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/registry"
)

// FriendLoader is the persistence collaborator consulted on every
// connect/disconnect. The list is re-read each time, never cached, since
// it may have changed while the user was connected.
type FriendLoader interface {
	ListFriends(ctx context.Context, username string) ([]domain.Friend, error)
}

type userPayload struct {
	Username string `json:"username"`
}

// Notifier fans presence changes out to connected friends. O(friends)
// per connect/disconnect, which is fine for the small lists involved.
type Notifier struct {
	friends  FriendLoader
	registry *registry.Registry
}

func NewNotifier(friends FriendLoader, reg *registry.Registry) *Notifier {
	return &Notifier{friends: friends, registry: reg}
}

// HandleConnect tells every online friend that username came online and
// replies to username with a snapshot of which friends are online now,
// so the client needs no per-friend round trips.
func (n *Notifier) HandleConnect(ctx context.Context, username string) {
	friends := n.confirmedFriends(ctx, username)

	online := make([]string, 0, len(friends))
	for _, friend := range friends {
		if n.registry.IsOnline(friend) {
			_ = n.registry.Send(friend, domain.NewEvent("friend:online", userPayload{Username: username}))
			online = append(online, friend)
		}
	}

	_ = n.registry.Send(username, domain.NewEvent("friend:list_online", online))
}

// HandleDisconnect tells every online friend that username went offline.
// Call after the registry entry is removed.
func (n *Notifier) HandleDisconnect(ctx context.Context, username string) {
	for _, friend := range n.confirmedFriends(ctx, username) {
		_ = n.registry.Send(friend, domain.NewEvent("friend:offline", userPayload{Username: username}))
	}
}

// HandleOnlineListRequest re-sends the online snapshot on demand
// (clients ask again after a reconnect).
func (n *Notifier) HandleOnlineListRequest(ctx context.Context, username string) {
	friends := n.confirmedFriends(ctx, username)
	_ = n.registry.Send(username, domain.NewEvent("friend:list_online", n.registry.Online(friends)))
}

func (n *Notifier) confirmedFriends(ctx context.Context, username string) []string {
	relations, err := n.friends.ListFriends(ctx, username)
	if err != nil {
		log.Printf("[PRESENCE] Failed to load friends for %s: %v", username, err)
		return nil
	}

	confirmed := make([]string, 0, len(relations))
	for _, rel := range relations {
		if rel.Status == domain.StatusFriends {
			confirmed = append(confirmed, rel.Username)
		}
	}
	return confirmed
}
