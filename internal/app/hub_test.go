package app_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddlemap/huddle/internal/app"
	"github.com/huddlemap/huddle/internal/core"
	"github.com/huddlemap/huddle/internal/domain"
)

// emitted records one outbound emission with its delivery scope.
type emitted struct {
	scope  string // "to" | "room" | "room-except"
	sid    core.SessionID
	room   domain.RoomCode
	except core.SessionID
	event  any
}

type recordingEmitter struct {
	mu     sync.Mutex
	subs   map[domain.RoomCode]map[core.SessionID]struct{}
	events []emitted
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{subs: make(map[domain.RoomCode]map[core.SessionID]struct{})}
}

func (e *recordingEmitter) Subscribe(code domain.RoomCode, sid core.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs[code] == nil {
		e.subs[code] = make(map[core.SessionID]struct{})
	}
	e.subs[code][sid] = struct{}{}
}

func (e *recordingEmitter) Unsubscribe(code domain.RoomCode, sid core.SessionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs[code], sid)
}

func (e *recordingEmitter) EmitTo(sid core.SessionID, v any) {
	e.record(emitted{scope: "to", sid: sid, event: v})
}

func (e *recordingEmitter) EmitRoom(code domain.RoomCode, v any) {
	e.record(emitted{scope: "room", room: code, event: v})
}

func (e *recordingEmitter) EmitRoomExcept(code domain.RoomCode, except core.SessionID, v any) {
	e.record(emitted{scope: "room-except", room: code, except: except, event: v})
}

func (e *recordingEmitter) record(ev emitted) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) all() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]emitted, len(e.events))
	copy(out, e.events)
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

func (e *recordingEmitter) subscribed(code domain.RoomCode, sid core.SessionID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.subs[code][sid]
	return ok
}

func newTestHub(historyLimit int, grace time.Duration) (*app.Hub, *recordingEmitter) {
	em := newRecordingEmitter()
	hub := app.NewHub(app.NewRegistry(), app.NewRoomManager(historyLimit, grace), em)
	return hub, em
}

func TestJoinUnknownRoomLeavesNoTrace(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)

	err := hub.Join("s1", "NOPE42", "U1", "red")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, bound := hub.Registry.Lookup("s1")
	assert.False(t, bound, "failed join must not create a session")
	assert.Empty(t, em.all(), "failed join must not emit")
	assert.False(t, em.subscribed("NOPE42", "s1"))
}

func TestJoinBroadcastsAndDeliversHistory(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code

	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))

	events := em.all()
	require.Len(t, events, 2)

	joinedEv, ok := events[0].event.(app.UserJoinedEvent)
	require.True(t, ok)
	assert.Equal(t, "room", events[0].scope)
	assert.Equal(t, app.EventUserJoined, joinedEv.Type)
	assert.Equal(t, "U1", joinedEv.User.Name)
	assert.Nil(t, joinedEv.User.Location)
	require.Len(t, joinedEv.Users, 1)

	histEv, ok := events[1].event.(app.PreviousMessagesEvent)
	require.True(t, ok)
	assert.Equal(t, "to", events[1].scope)
	assert.Equal(t, core.SessionID("s1"), events[1].sid, "history goes to the joiner only")
	assert.Empty(t, histEv.Messages)

	assert.True(t, em.subscribed(code, "s1"))
}

func TestJoinIsCaseInsensitive(t *testing.T) {
	hub, _ := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code

	require.NoError(t, hub.Join("s1", " "+strings.ToLower(string(code))+" ", "U1", "red"))

	sess, ok := hub.Registry.Lookup("s1")
	require.True(t, ok)
	assert.Equal(t, code, sess.RoomCode)
}

func TestSecondJoinerGetsExistingHistory(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code

	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	hub.SendBroadcast("s1", "hi")
	em.reset()

	require.NoError(t, hub.Join("s2", string(code), "U2", "blue"))

	events := em.all()
	require.Len(t, events, 2)
	joinedEv := events[0].event.(app.UserJoinedEvent)
	require.Len(t, joinedEv.Users, 2)
	assert.Equal(t, "U1", joinedEv.Users[0].Name)
	assert.Equal(t, "U2", joinedEv.Users[1].Name)

	histEv := events[1].event.(app.PreviousMessagesEvent)
	require.Len(t, histEv.Messages, 1)
	assert.Equal(t, "hi", histEv.Messages[0].Text)
	assert.Equal(t, domain.KindGroup, histEv.Messages[0].Kind)
}

func TestLeaveBroadcastsAndSchedulesEviction(t *testing.T) {
	hub, em := newTestHub(100, 25*time.Millisecond)
	code := hub.Rooms.CreateRoom().Room().Code

	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	require.NoError(t, hub.Join("s2", string(code), "U2", "blue"))
	em.reset()

	hub.Leave("s2")

	events := em.all()
	require.Len(t, events, 1)
	leftEv := events[0].event.(app.UserLeftEvent)
	assert.Equal(t, app.EventUserLeft, leftEv.Type)
	assert.Equal(t, "s2", leftEv.UserID)
	assert.Equal(t, "U2", leftEv.UserName)
	require.Len(t, leftEv.Users, 1)
	assert.False(t, em.subscribed(code, "s2"))

	// One member left: the room must survive the grace period.
	time.Sleep(100 * time.Millisecond)
	exists, count := hub.Rooms.Info(code)
	assert.True(t, exists)
	assert.Equal(t, 1, count)

	hub.Leave("s1")
	time.Sleep(100 * time.Millisecond)
	exists, _ = hub.Rooms.Info(code)
	assert.False(t, exists, "room emptied for the full grace period is deleted")
}

func TestLeaveWithoutSessionIsNoop(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	hub.Leave("ghost")
	assert.Empty(t, em.all())
}

func TestSessionMembershipBijection(t *testing.T) {
	hub, _ := newTestHub(100, time.Hour)
	room := hub.Rooms.CreateRoom()
	code := room.Room().Code

	sids := []core.SessionID{"s1", "s2", "s3", "s4"}
	joined := make(map[core.SessionID]bool)

	check := func() {
		t.Helper()
		snap := room.MembersSnapshot()
		inRoom := make(map[string]bool, len(snap))
		for _, m := range snap {
			inRoom[m.ID] = true
		}
		for _, sid := range sids {
			sess, bound := hub.Registry.Lookup(sid)
			if bound {
				require.Equal(t, code, sess.RoomCode)
			}
			require.Equal(t, joined[sid], bound, "session %s", sid)
			require.Equal(t, joined[sid], inRoom[string(sid)], "membership %s", sid)
		}
		require.Len(t, snap, len(inRoom))
		require.Equal(t, len(snap), hub.Registry.Count(), "one session per membership")
	}

	for i, sid := range sids {
		require.NoError(t, hub.Join(sid, string(code), fmt.Sprintf("U%d", i+1), "red"))
		joined[sid] = true
		check()
	}
	for _, sid := range []core.SessionID{"s2", "s4", "s1", "s3"} {
		hub.Leave(sid)
		joined[sid] = false
		check()
	}
}

func TestSendBroadcastAppendsAndFansOut(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	room := hub.Rooms.CreateRoom()
	code := room.Room().Code

	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	require.NoError(t, hub.Join("s2", string(code), "U2", "blue"))
	em.reset()

	hub.SendBroadcast("s1", "hi")

	events := em.all()
	require.Len(t, events, 1)
	assert.Equal(t, "room", events[0].scope, "sender receives its own broadcast too")
	msgEv := events[0].event.(app.NewMessageEvent)
	assert.Equal(t, app.EventNewMessage, msgEv.Type)
	assert.Equal(t, domain.KindGroup, msgEv.Kind)
	assert.Equal(t, "hi", msgEv.Text)
	assert.Equal(t, "s1", msgEv.UserID)
	assert.Equal(t, "U1", msgEv.UserName)
	assert.Equal(t, "red", msgEv.UserColor)
	assert.NotEmpty(t, msgEv.ID)

	history := room.History()
	require.Len(t, history, 1)
	assert.Equal(t, msgEv.BroadcastMessage, history[0])
}

func TestSendBroadcastWithoutSessionIsNoop(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	hub.Rooms.CreateRoom()

	hub.SendBroadcast("ghost", "hi")
	assert.Empty(t, em.all())
}

func TestSendBroadcastTrimsHistory(t *testing.T) {
	hub, _ := newTestHub(100, time.Hour)
	room := hub.Rooms.CreateRoom()
	code := room.Room().Code
	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))

	for i := 0; i < 103; i++ {
		hub.SendBroadcast("s1", fmt.Sprintf("msg-%d", i))
	}

	history := room.History()
	require.Len(t, history, 100)
	assert.Equal(t, "msg-3", history[0].Text)
	assert.Equal(t, "msg-102", history[99].Text)
}

func TestSendPrivateDeliversToBothEnds(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	room := hub.Rooms.CreateRoom()
	code := room.Room().Code

	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	require.NoError(t, hub.Join("s2", string(code), "U2", "blue"))
	em.reset()

	hub.SendPrivate("s1", "s2", "psst")

	events := em.all()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "to", ev.scope, "private messages never hit a room group")
	}
	assert.Equal(t, core.SessionID("s2"), events[0].sid)
	assert.Equal(t, core.SessionID("s1"), events[1].sid)

	pm := events[0].event.(app.NewPrivateMessageEvent)
	assert.Equal(t, app.EventNewPrivate, pm.Type)
	assert.Equal(t, domain.KindPrivate, pm.Kind)
	assert.Equal(t, "psst", pm.Text)
	assert.Equal(t, "s1", pm.FromID)
	assert.Equal(t, "U1", pm.FromName)
	assert.Equal(t, "s2", pm.ToID)
	assert.Equal(t, "U2", pm.ToName)
	assert.Equal(t, events[0].event, events[1].event, "sender gets an identical copy")

	assert.Empty(t, room.History(), "private messages never enter room history")
}

func TestSendPrivateAcrossRooms(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	codeA := hub.Rooms.CreateRoom().Room().Code
	codeB := hub.Rooms.CreateRoom().Room().Code

	require.NoError(t, hub.Join("s1", string(codeA), "U1", "red"))
	require.NoError(t, hub.Join("s2", string(codeB), "U2", "blue"))
	em.reset()

	// No membership check between sender and recipient.
	hub.SendPrivate("s1", "s2", "hello over there")
	assert.Len(t, em.all(), 2)
}

func TestSendPrivateMissingEitherSessionIsNoop(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code
	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	em.reset()

	hub.SendPrivate("s1", "ghost", "anyone?")
	hub.SendPrivate("ghost", "s1", "boo")
	assert.Empty(t, em.all())
}

func TestSetTypingExcludesSender(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code
	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	em.reset()

	hub.SetTyping("s1", true)

	events := em.all()
	require.Len(t, events, 1)
	assert.Equal(t, "room-except", events[0].scope)
	assert.Equal(t, core.SessionID("s1"), events[0].except)
	typingEv := events[0].event.(app.UserTypingEvent)
	assert.Equal(t, app.EventUserTyping, typingEv.Type)
	assert.Equal(t, "s1", typingEv.UserID)
	assert.Equal(t, "U1", typingEv.UserName)
	assert.True(t, typingEv.IsTyping)

	hub.SetTyping("ghost", true)
	assert.Len(t, em.all(), 1)
}

func TestUpdateLocationMutatesMemberAndFansOut(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	room := hub.Rooms.CreateRoom()
	code := room.Room().Code
	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	em.reset()

	hub.UpdateLocation("s1", 40.4168, -3.7038)

	events := em.all()
	require.Len(t, events, 1)
	assert.Equal(t, "room", events[0].scope, "originator receives the update too")
	locEv := events[0].event.(app.LocationUpdateEvent)
	assert.Equal(t, app.EventLocationUpdate, locEv.Type)
	assert.Equal(t, "s1", locEv.UserID)
	assert.Equal(t, 40.4168, locEv.Location.Latitude)
	assert.Equal(t, -3.7038, locEv.Location.Longitude)
	assert.False(t, locEv.Timestamp.IsZero())

	snap := room.MembersSnapshot()
	require.NotNil(t, snap[0].Location)
	assert.Equal(t, *snap[0].Location, locEv.Location)
	assert.Equal(t, snap[0].LastUpdate, locEv.Timestamp)
}

func TestUpdateLocationAcceptsOutOfRangeCoordinates(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	code := hub.Rooms.CreateRoom().Room().Code
	require.NoError(t, hub.Join("s1", string(code), "U1", "red"))
	em.reset()

	// Relayed as-is, never clamped.
	hub.UpdateLocation("s1", 512.0, -720.5)

	events := em.all()
	require.Len(t, events, 1)
	locEv := events[0].event.(app.LocationUpdateEvent)
	assert.Equal(t, 512.0, locEv.Location.Latitude)
	assert.Equal(t, -720.5, locEv.Location.Longitude)
}

func TestUpdateLocationWithoutSessionIsNoop(t *testing.T) {
	hub, em := newTestHub(100, time.Hour)
	hub.UpdateLocation("ghost", 1, 2)
	assert.Empty(t, em.all())
}
