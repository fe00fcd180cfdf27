package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core/events"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

func (api *taskApi) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get(echo.HeaderOrigin)
			return origin == "" || origin == api.conf.FrontendBaseURL
		},
	}
}

// stream pushes the task change events to the client until either side goes away.
// Technicians only receive the events of their own tasks.
func (api *taskApi) stream(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	upgrader := api.upgrader()
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader already replied
	}
	defer conn.Close()

	var filter events.Filter
	if !sess.IsManager() {
		filter = events.ForAssignee(sess.User.ID)
	}
	evts, unsubscribe := api.broker.Subscribe(filter)
	defer unsubscribe()

	api.metrics.StreamConnected()
	defer api.metrics.StreamDisconnected()

	// the client only sends control frames: read them to process pongs and detect close
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Request().Context().Done():
			return nil
		case ev, ok := <-evts:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok { // broker closed
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return nil
			}
			if err := conn.WriteJSON(ev); err != nil {
				api.logStreamError(err)
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (api *taskApi) logStreamError(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		err = errors.Wrap(err, "writing event")
		api.logger.Error(fmt.Sprintf("echoapi.taskApi.stream: %v", err), err)
	}
}
