package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manganime/pkg/models"
)

// dialSubscriber stands up a real websocket connection subscribed to the
// given room and returns the client side.
func dialSubscriber(t *testing.T, hub *Hub, contentType, contentID string) *gws.Conn {
	t.Helper()

	upgrader := gws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(conn, contentType, contentID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.RoomSubscriberCount(contentType, contentID) == 1
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	conn := dialSubscriber(t, hub, "manga", "one-piece")

	view := &models.CommentView{Comment: models.Comment{ID: "c1", Text: "hello"}}
	hub.CommentPosted("manga", "one-piece", view)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "comment_posted", event.Type)
	assert.Equal(t, "manga:one-piece", event.Room)
}

func TestEventsScopedToRoom(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	conn := dialSubscriber(t, hub, "manga", "one-piece")

	hub.CommentDeleted("anime", "frieren", "other")
	hub.CommentDeleted("manga", "one-piece", "mine")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "comment_deleted", event.Type)
	assert.Equal(t, "mine", event.CommentID)
}

// Stop must return promptly with subscribers still connected: the room
// loop exits on stop, so nothing may block on its channels afterwards.
func TestStopReturnsWithLiveSubscribers(t *testing.T) {
	hub := NewHub()
	dialSubscriber(t, hub, "manga", "one-piece")
	dialSubscriber(t, hub, "anime", "frieren")

	done := make(chan struct{})
	go func() {
		hub.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("hub.Stop did not return with live subscribers connected")
	}
}

func TestSubscriberCountDropsOnDisconnect(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	conn := dialSubscriber(t, hub, "manga", "one-piece")
	conn.Close()

	require.Eventually(t, func() bool {
		return hub.RoomSubscriberCount("manga", "one-piece") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
