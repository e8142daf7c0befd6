package socket

import (
	"chat-rooms/domain/event"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// echoServer sends back every frame it receives.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		channel := NewChannel(conn, DefaultOptions())
		defer channel.Close()
		for {
			frame, err := channel.ReadFrame()
			if err != nil {
				return
			}
			if err = channel.WriteFrame(frame); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestTransport_Dial_RoundTrip(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := echoServer(t)
	transport := NewTransport(log, wsURL(server), DefaultOptions())

	channel, err := transport.Dial(context.Background())
	req.NoError(err)
	defer channel.Close()

	// When a frame is written
	frame, err := event.NewFrame(event.Join, "#general")
	req.NoError(err)
	req.NoError(channel.WriteFrame(frame))

	// Then the same frame is read back
	echoed, err := channel.ReadFrame()
	req.NoError(err)
	req.Equal(event.Join, echoed.Event)
	var room string
	req.NoError(echoed.Decode(&room))
	req.Equal("#general", room)
}

func TestTransport_Dial_Refused(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := echoServer(t)
	url := wsURL(server)
	server.Close()

	_, err := NewTransport(log, url, DefaultOptions()).Dial(context.Background())
	req.Error(err)
}

func TestChannel_Close_UnblocksRead(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := echoServer(t)
	channel, err := NewTransport(log, wsURL(server), DefaultOptions()).Dial(context.Background())
	req.NoError(err)

	failed := make(chan error, 1)
	go func() {
		_, err := channel.ReadFrame()
		failed <- err
	}()

	req.NoError(channel.Close())

	select {
	case err = <-failed:
		req.Error(err)
	case <-time.After(time.Second):
		req.Fail("ReadFrame still blocked after Close")
	}
}

func TestChannel_ReadTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := echoServer(t)
	options := DefaultOptions()
	options.ReadTimeout = 50 * time.Millisecond

	channel, err := NewTransport(log, wsURL(server), options).Dial(context.Background())
	req.NoError(err)
	defer channel.Close()

	// When the peer stays silent
	_, err = channel.ReadFrame()

	// Then the read fails on the deadline
	req.Error(err)
}
