package room_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/internal/engine/tictac"
	"github.com/spck/arcade-backend/internal/room"
)

type fakeSender struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newFakeSender() *fakeSender {
	return &fakeSender{events: make(map[string][]domain.Event)}
}

func (s *fakeSender) Send(username string, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[username] = append(s.events[username], event)
	return nil
}

func (s *fakeSender) lastEvent(username string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events[username]
	if len(events) == 0 {
		return domain.Event{}, false
	}
	return events[len(events)-1], true
}

func (s *fakeSender) countType(username, eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.events[username] {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

type reportedResult struct {
	gameType string
	winner   string
	loser    string
	draw     bool
}

type fakeReporter struct {
	mu      sync.Mutex
	results []reportedResult
}

func (r *fakeReporter) ReportResult(eng engine.Engine, winner, loser string, draw bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, reportedResult{eng.GameType(), winner, loser, draw})
}

func (r *fakeReporter) all() []reportedResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportedResult(nil), r.results...)
}

// payloadMap re-marshals an event payload so tests can inspect it the
// way a client would.
func payloadMap(t *testing.T, event domain.Event) map[string]any {
	t.Helper()
	data, err := json.Marshal(event.Payload)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func moveAt(index int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"index":%d}`, index))
}

func newManager() (*room.Manager, *fakeSender, *fakeReporter) {
	sender := newFakeSender()
	reporter := &fakeReporter{}
	engines := engine.NewRegistry(tictac.New())
	return room.NewManager(engines, sender, reporter), sender, reporter
}

func TestCreateSendsGameStartToBoth(t *testing.T) {
	m, sender, _ := newManager()

	r, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, m.InRoom("alice"))
	assert.True(t, m.InRoom("bob"))

	aliceStart, ok := sender.lastEvent("alice")
	require.True(t, ok)
	assert.Equal(t, "tictac:game_start", aliceStart.Type)
	alicePayload := payloadMap(t, aliceStart)
	assert.Equal(t, r.ID, alicePayload["roomId"])
	assert.Equal(t, true, alicePayload["isMyTurn"])
	assert.Equal(t, "X", alicePayload["mySymbol"])
	assert.Equal(t, "bob", alicePayload["opponent"])

	bobStart, _ := sender.lastEvent("bob")
	bobPayload := payloadMap(t, bobStart)
	assert.Equal(t, false, bobPayload["isMyTurn"])
	assert.Equal(t, "O", bobPayload["mySymbol"])
	assert.Equal(t, "alice", bobPayload["opponent"])
}

func TestCreateGuards(t *testing.T) {
	m, _, _ := newManager()

	_, err := m.Create("tictac", "alice", "alice")
	assert.ErrorIs(t, err, domain.ErrSelfMatch)

	_, err = m.Create("chess", "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrUnknownGameType)

	_, err = m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	_, err = m.Create("tictac", "alice", "carol")
	assert.ErrorIs(t, err, domain.ErrAlreadyInRoom)
}

func TestMoveTurnEnforcement(t *testing.T) {
	m, sender, _ := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	// Bob moves out of turn: error to bob only, no update broadcast.
	m.HandleMove("bob", moveAt(0))
	bobEvent, _ := sender.lastEvent("bob")
	assert.Equal(t, "tictac:error", bobEvent.Type)
	assert.Equal(t, domain.ErrNotYourTurn.Error(), payloadMap(t, bobEvent)["message"])
	assert.Equal(t, 0, sender.countType("alice", "tictac:update"))

	// Alice moves: both get an update, turn flips.
	m.HandleMove("alice", moveAt(0))
	assert.Equal(t, 1, sender.countType("alice", "tictac:update"))
	assert.Equal(t, 1, sender.countType("bob", "tictac:update"))

	aliceUpdate, _ := sender.lastEvent("alice")
	assert.Equal(t, false, payloadMap(t, aliceUpdate)["isMyTurn"])
	bobUpdate, _ := sender.lastEvent("bob")
	assert.Equal(t, true, payloadMap(t, bobUpdate)["isMyTurn"])

	// Alice again immediately: rejected.
	m.HandleMove("alice", moveAt(1))
	aliceEvent, _ := sender.lastEvent("alice")
	assert.Equal(t, "tictac:error", aliceEvent.Type)
}

func playXWins(t *testing.T, m *room.Manager) {
	t.Helper()
	m.HandleMove("alice", moveAt(0))
	m.HandleMove("bob", moveAt(3))
	m.HandleMove("alice", moveAt(1))
	m.HandleMove("bob", moveAt(4))
	m.HandleMove("alice", moveAt(2))
}

func TestWinReportsExactlyOneOutcomePair(t *testing.T) {
	m, sender, reporter := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	playXWins(t, m)

	results := reporter.all()
	require.Len(t, results, 1)
	assert.Equal(t, reportedResult{"tictac", "alice", "bob", false}, results[0])

	// Both final snapshots carry the winning side symbol.
	aliceUpdate, _ := sender.lastEvent("alice")
	payload := payloadMap(t, aliceUpdate)
	assert.Equal(t, "finished", payload["status"])
	assert.Equal(t, "X", payload["winner"])

	// Moves after the end are rejected, not re-reported.
	m.HandleMove("bob", moveAt(5))
	bobEvent, _ := sender.lastEvent("bob")
	assert.Equal(t, "tictac:error", bobEvent.Type)
	assert.Equal(t, domain.ErrRoomFinished.Error(), payloadMap(t, bobEvent)["message"])
	assert.Len(t, reporter.all(), 1)
}

func TestDisconnectMidGameIsImmediateForfeit(t *testing.T) {
	m, sender, reporter := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	m.HandleMove("alice", moveAt(0))
	m.HandleDisconnect("bob")

	results := reporter.all()
	require.Len(t, results, 1)
	assert.Equal(t, reportedResult{"tictac", "alice", "bob", false}, results[0])

	aliceUpdate, _ := sender.lastEvent("alice")
	payload := payloadMap(t, aliceUpdate)
	assert.Equal(t, "finished", payload["status"])
	assert.Equal(t, "O", payload["winner"], "forfeit awards the leaver's opponent")
	assert.NotEmpty(t, payload["disconnectMessage"])

	assert.False(t, m.InRoom("alice"))
	assert.False(t, m.InRoom("bob"))
}

func TestLeaveAfterGameEndDoesNotDoubleReport(t *testing.T) {
	m, sender, reporter := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	playXWins(t, m)
	require.Len(t, reporter.all(), 1)

	// Bob leaves the finished room: no second outcome, alice is told the
	// rematch window is gone.
	m.HandleLeave("bob")
	assert.Len(t, reporter.all(), 1)
	aliceEvent, _ := sender.lastEvent("alice")
	assert.Equal(t, "tictac:rematch_declined", aliceEvent.Type)
	assert.False(t, m.InRoom("alice"))
}

func TestRematchNeedsBothPlayers(t *testing.T) {
	m, sender, _ := newManager()
	created, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	// Rematch during an active game is rejected.
	m.HandleRematchRequest("alice")
	aliceEvent, _ := sender.lastEvent("alice")
	assert.Equal(t, "tictac:error", aliceEvent.Type)

	playXWins(t, m)

	m.HandleRematchRequest("alice")
	aliceEvent, _ = sender.lastEvent("alice")
	assert.Equal(t, "tictac:waiting_rematch", aliceEvent.Type)
	bobEvent, _ := sender.lastEvent("bob")
	assert.Equal(t, "tictac:rematch_requested", bobEvent.Type)

	// Asking twice does not confirm your own request.
	m.HandleRematchRequest("alice")
	aliceEvent, _ = sender.lastEvent("alice")
	assert.Equal(t, "tictac:error", aliceEvent.Type)
	assert.Equal(t, domain.ErrRematchPending.Error(), payloadMap(t, aliceEvent)["message"])

	m.HandleRematchRequest("bob")
	aliceStart, _ := sender.lastEvent("alice")
	require.Equal(t, "tictac:game_start", aliceStart.Type)
	payload := payloadMap(t, aliceStart)
	assert.Equal(t, created.ID, payload["roomId"], "rematch reuses the room")
	assert.Equal(t, true, payload["isMyTurn"], "turn returns to the first-mover")
	assert.Equal(t, "X", payload["mySymbol"], "sides are kept")

	// Fresh game is playable again.
	assert.Equal(t, domain.StatusActive, created.Status())
	assert.Equal(t, "alice", created.Turn())
}

func TestNoRematchAfterForfeit(t *testing.T) {
	m, sender, reporter := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	m.HandleDisconnect("bob")
	require.Len(t, reporter.all(), 1)

	// The room is gone; a rematch request goes nowhere.
	m.HandleRematchRequest("alice")
	aliceEvent, _ := sender.lastEvent("alice")
	assert.NotEqual(t, "tictac:waiting_rematch", aliceEvent.Type)
}

func TestChatRelayedToBothOccupants(t *testing.T) {
	m, sender, _ := newManager()
	_, err := m.Create("tictac", "alice", "bob")
	require.NoError(t, err)

	m.HandleChat("alice", "good luck!")

	for _, username := range []string{"alice", "bob"} {
		event, ok := sender.lastEvent(username)
		require.True(t, ok)
		assert.Equal(t, "chat:new_room_message", event.Type)
		payload := payloadMap(t, event)
		assert.Equal(t, "alice", payload["sender"])
		assert.Equal(t, "good luck!", payload["message"])
		assert.NotEmpty(t, payload["timestamp"])
	}

	// Outsiders and empty messages are dropped.
	m.HandleChat("carol", "hi")
	_, ok := sender.lastEvent("carol")
	assert.False(t, ok)
}
