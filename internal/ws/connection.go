package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scrollguide/guide/internal/clock"
	"github.com/scrollguide/guide/internal/engine"
	"github.com/scrollguide/guide/internal/loop"
	"github.com/scrollguide/guide/internal/section"
	"github.com/scrollguide/guide/internal/visibility"
)

const (
	sendBuffer   = 64
	maxReadBytes = 64 << 10
)

// connection is one mounted guide driven by a browser. The websocket is read
// and written on their own goroutines; everything else is owned by the
// connection's loop.
type connection struct {
	ws   *websocket.Conn
	send chan []byte
	loop *loop.Loop
	log  *zap.Logger

	reg     *section.Registry
	titles  map[string]string
	layout  visibility.Layout
	tracker *visibility.Tracker
	engine  *engine.Engine
	mounted bool
	seq     int

	closeOnce sync.Once
}

type connectionConfig struct {
	Registry       *section.Registry
	DefaultGesture section.Gesture
	EntranceDelay  time.Duration
	Options        visibility.Options
	Titles         map[string]string
	Logger         *zap.Logger
}

func newConnection(ws *websocket.Conn, cfg connectionConfig) *connection {
	c := &connection{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		loop:   loop.New(),
		reg:    cfg.Registry,
		titles: cfg.Titles,
		layout: visibility.Layout{},
	}
	c.tracker = visibility.NewTracker(c.layout, c.loop, cfg.Options)
	c.engine = engine.New(engine.Config{
		Registry:       cfg.Registry,
		DefaultGesture: cfg.DefaultGesture,
		EntranceDelay:  cfg.EntranceDelay,
		Scheduler:      clock.NewReal(c.loop),
		Tracker:        c.tracker,
		Presenter:      engine.PresenterFunc(c.present),
		OnInteract:     func() { c.queue(WSMessage{Type: MsgInteraction}) },
		Logger:         cfg.Logger,
	})
	c.log = cfg.Logger.With(zap.String("instance", c.engine.ID()))
	return c
}

// ID returns the connection's guide instance id.
func (c *connection) ID() string { return c.engine.ID() }

func (c *connection) start() {
	go c.loop.Run(context.Background())
	go c.writePump()

	hello := HelloPayload{Instance: c.engine.ID()}
	for _, d := range c.reg.Descriptors() {
		hello.Sections = append(hello.Sections, SectionInfo{
			ID:      d.ID,
			Gesture: string(d.Gesture),
			Title:   c.titles[d.ID],
		})
	}
	c.loop.Post(func() { c.queue(WSMessage{Type: MsgHello, Payload: hello}) })
}

func (c *connection) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump blocks until the peer goes away or sends something unreadable at
// the frame level. Decoded messages are handed to the loop in arrival order.
func (c *connection) readPump() {
	c.ws.SetReadLimit(maxReadBytes)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("ws read error", zap.Error(err))
			}
			return
		}
		c.loop.Post(func() { c.handle(data) })
	}
}

// close tears the guide down on its loop, then stops the loop and the writer.
// Safe to call more than once.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		if err := c.loop.Do(context.Background(), c.engine.Teardown); err != nil {
			c.log.Debug("teardown skipped", zap.Error(err))
		}
		c.loop.Close()
		<-c.loop.Done()
		close(c.send)
	})
}

// state reads the current tuple from the loop.
func (c *connection) state(ctx context.Context) (StatePayload, error) {
	var p StatePayload
	err := c.loop.Do(ctx, func() { p = statePayload(c.seq, c.engine.State()) })
	return p, err
}

func (c *connection) handle(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.fail(fmt.Errorf("decode message: %w", err))
		return
	}

	switch msg.Type {
	case MsgLayout:
		var p LayoutPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.fail(fmt.Errorf("decode layout: %w", err))
			return
		}
		c.applyLayout(p)
	case MsgScroll:
		var p ViewportPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.fail(fmt.Errorf("decode scroll: %w", err))
			return
		}
		c.tracker.Scroll(viewport(p))
	case MsgVisibility:
		var p VisibilityPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.fail(fmt.Errorf("decode visibility: %w", err))
			return
		}
		c.mount(visibility.Viewport{})
		c.engine.HandleVisibility(visibility.Event{SectionID: p.SectionID, Visible: p.Visible})
	case MsgInteract:
		c.engine.Interact()
	default:
		c.fail(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (c *connection) applyLayout(p LayoutPayload) {
	clear(c.layout)
	for _, r := range p.Sections {
		c.layout[r.ID] = visibility.Rect{Top: r.Top, Height: r.Height}
	}

	if !c.mounted {
		c.mount(viewport(p.Viewport))
		return
	}
	c.tracker.Scroll(viewport(p.Viewport))
}

// mount runs once per connection, on the first layout or visibility report.
func (c *connection) mount(vp visibility.Viewport) {
	if c.mounted {
		return
	}
	c.mounted = true
	c.tracker.SetViewport(vp)
	c.engine.Mount()
	c.log.Info("guide mounted", zap.Strings("observed", c.engine.Observed()))
}

func (c *connection) present(st engine.State) {
	c.seq++
	c.queue(WSMessage{Type: MsgState, Payload: statePayload(c.seq, st)})
}

func (c *connection) fail(err error) {
	c.log.Debug("bad client message", zap.Error(err))
	c.queue(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
}

// queue must run on the loop. A client that cannot keep up is disconnected;
// the read side then notices and tears the guide down.
func (c *connection) queue(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("ws marshal error", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("ws client too slow, disconnecting")
		_ = c.ws.Close()
	}
}

func viewport(p ViewportPayload) visibility.Viewport {
	return visibility.Viewport{Top: p.Top, Height: p.Height}
}
