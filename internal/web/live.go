package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/jspm/jspm-packages/internal/errors"
	"github.com/jspm/jspm-packages/pkg/islands"
	"github.com/jspm/jspm-packages/pkg/store"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the connection may stay silent.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = pongWait * 9 / 10

	// maxMessageSize caps client messages.
	maxMessageSize = 64 << 10

	// sendBuffer is the outbound queue length. A client that falls this
	// far behind is disconnected and resyncs on reconnect.
	sendBuffer = 64
)

// Live message types.
const (
	msgHydrate  = "hydrate"
	msgAction   = "action"
	msgFragment = "fragment"
	msgError    = "error"
)

var errSlowClient = errors.New("websocket: outbound queue full")

// clientMessage is a message sent by the island runtime.
type clientMessage struct {
	Type    string             `json:"type"`
	Anchors islands.AnchorList `json:"anchors,omitempty"`
	Tag     string             `json:"tag,omitempty"`
	Name    string             `json:"name,omitempty"`
	Value   string             `json:"value,omitempty"`
}

// serverMessage is a message pushed to the island runtime.
type serverMessage struct {
	Type     string `json:"type"`
	Tag      string `json:"tag,omitempty"`
	HTML     string `json:"html,omitempty"`
	Revision uint64 `json:"revision,omitempty"`
	Message  string `json:"message,omitempty"`
}

// liveConn is one island runtime connection.
type liveConn struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newLiveConn(conn *websocket.Conn) *liveConn {
	return &liveConn{
		conn: conn,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// send queues msg without blocking. A full queue closes the connection.
func (c *liveConn) send(msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
		c.close()
		return errSlowClient
	}
}

func (c *liveConn) close() {
	c.once.Do(func() { close(c.done) })
}

// writeLoop drains the queue and keeps the connection alive with pings.
func (c *liveConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// liveSession is the server side of one live connection: the islands it
// hydrated against its session root.
type liveSession struct {
	s    *Server
	conn *liveConn
	root *Root
	set  *islands.Set
}

// handleLive upgrades the connection and runs the live protocol until the
// client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := s.session.sessionFromRequest(r)
	if id == "" && s.dev {
		if q := r.URL.Query().Get("session"); validSessionID(q) {
			id = q
		}
	}
	if id == "" {
		s.writeError(w, r, apperrors.New("J203").WithDetail("missing or malformed session id"))
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("live upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	root, release := s.roots.Acquire(ctx, id)
	defer release()

	conn := newLiveConn(ws)
	go conn.writeLoop()
	defer conn.close()

	if s.metrics != nil {
		s.metrics.LiveConnected()
		defer s.metrics.LiveDisconnected()
	}

	ls := &liveSession{s: s, conn: conn, root: root}
	defer ls.unmount()

	ctx = store.WithStore(ctx, root.Store)
	ls.readLoop(ctx)
}

func (ls *liveSession) readLoop(ctx context.Context) {
	ws := ls.conn.conn
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				ls.s.logger.Warn("live read error", "session", ls.root.ID, "error", err)
				ls.s.recordLiveError(err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ls.fail(apperrors.New("J203").Wrap(err).WithDetail("message is not valid JSON"))
			continue
		}

		switch msg.Type {
		case msgHydrate:
			ls.hydrate(ctx, msg.Anchors)
		case msgAction:
			ls.action(ctx, msg)
		default:
			ls.fail(apperrors.New("J203").WithDetail(fmt.Sprintf("unknown message type %q", msg.Type)))
		}
	}
}

// hydrate mounts an island for every known anchor the page reported.
// Hydrating again replaces the previous set.
func (ls *liveSession) hydrate(ctx context.Context, anchors islands.AnchorList) {
	ls.unmount()

	catalog := ls.s.pages.Catalog()
	var list []islands.Island
	seen := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		if seen[a.Tag] {
			continue
		}
		island, ok := catalog.New(a.Tag)
		if !ok {
			ls.s.logger.Debug("ignoring unknown anchor", "tag", a.Tag)
			continue
		}
		seen[a.Tag] = true
		list = append(list, island)
	}

	env := islands.Env{
		Sink:     islands.SinkFunc(ls.push),
		Hasher:   ls.root.Hasher,
		Renderer: ls.s.renderer,
		Logger:   ls.s.logger.With("session", ls.root.ID),
	}
	ls.set = islands.MountAll(ctx, anchors, list, env)
	ls.s.logger.Debug("islands hydrated", "session", ls.root.ID, "islands", ls.set.Tags())
}

func (ls *liveSession) action(ctx context.Context, msg clientMessage) {
	if ls.set == nil {
		ls.fail(apperrors.New("J203").WithDetail("action received before hydrate"))
		return
	}
	err := ls.set.Dispatch(ctx, msg.Tag, islands.Action{Name: msg.Name, Value: msg.Value})
	if ls.s.metrics != nil {
		ls.s.metrics.RecordAction(msg.Tag, msg.Name, err)
	}
	if err != nil {
		ls.fail(actionError(err))
	}
}

// push is the islands' sink.
func (ls *liveSession) push(f islands.Fragment) error {
	err := ls.conn.send(serverMessage{
		Type:     msgFragment,
		Tag:      f.Tag,
		HTML:     f.HTML,
		Revision: f.Revision,
	})
	if err != nil {
		return err
	}
	if ls.s.metrics != nil {
		ls.s.metrics.RecordFragment()
	}
	return nil
}

// fail reports err to the client and keeps the connection open.
func (ls *liveSession) fail(err *apperrors.AppError) {
	ls.s.logger.Debug("live message rejected", "session", ls.root.ID, "error", err)
	ls.s.recordLiveError(err)
	message := err.Message
	if err.Detail != "" {
		message += ": " + err.Detail
	}
	ls.conn.send(serverMessage{Type: msgError, Message: message})
}

func (ls *liveSession) unmount() {
	if ls.set != nil {
		ls.set.Unmount()
		ls.set = nil
	}
}

// actionError maps a dispatch failure to a coded error.
func actionError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, islands.ErrNotMounted):
		return apperrors.New("J201").Wrap(err).WithDetail(err.Error())
	case errors.Is(err, islands.ErrUnknownAction), errors.Is(err, islands.ErrUnmounted):
		return apperrors.New("J202").Wrap(err).WithDetail(err.Error())
	case errors.Is(err, islands.ErrNoStore):
		return apperrors.New("J401").Wrap(err)
	}
	return apperrors.FromError(err, "J202")
}
