package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weftdom/weft/pkg/protocol"
)

// subscriber is one connected renderer. Frames are queued on send and
// written by a single writer goroutine; a subscriber whose queue fills
// up is disconnected and expected to reconnect with a resync.
type subscriber struct {
	srv    *Server
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newSubscriber(srv *Server, conn *websocket.Conn) *subscriber {
	return &subscriber{
		srv:    srv,
		conn:   conn,
		send:   make(chan []byte, srv.cfg.SendBuffer),
		logger: srv.logger.With("remote", conn.RemoteAddr().String()),
		closed: make(chan struct{}),
	}
}

// enqueue queues a frame without blocking. It reports false when the
// subscriber's buffer is full.
func (c *subscriber) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.closed:
		return true // already gone, nothing to drop
	default:
		return false
	}
}

func (c *subscriber) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// readLoop consumes inbound frames until the connection drops. It
// handles control messages and accepts Submit frames, so a renderer
// process can also act as a tree source over the same socket.
func (c *subscriber) readLoop() {
	defer c.srv.removeSubscriber(c)

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.srv.cfg.ReadTimeout))

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			c.logger.Warn("frame decode error", "error", err)
			c.enqueue(errorFrame(protocol.ErrCodeInvalidFrame, "malformed frame"))
			continue
		}

		switch frame.Type {
		case protocol.FrameControl:
			c.handleControl(frame.Payload)

		case protocol.FrameSubmit:
			c.handleSubmit(frame.Payload)

		default:
			c.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

func (c *subscriber) handleControl(payload []byte) {
	ctl, err := protocol.DecodeControl(payload)
	if err != nil {
		c.logger.Warn("control decode error", "error", err)
		return
	}

	switch ctl.Type {
	case protocol.ControlPing:
		pong := protocol.EncodeControl(&protocol.Control{
			Type:  protocol.ControlPong,
			Value: ctl.Value,
		})
		c.enqueue(protocol.NewFrame(protocol.FrameControl, pong).Encode())

	case protocol.ControlPong:
		c.logger.Debug("pong", "value", ctl.Value)

	case protocol.ControlResync:
		c.srv.resync(c, ctl.Value)
	}
}

func (c *subscriber) handleSubmit(payload []byte) {
	sub, err := protocol.DecodeSubmit(payload)
	if err != nil {
		c.srv.metrics.SubmitRejected.Inc()
		c.enqueue(errorFrame(protocol.ErrCodeInvalidFrame, "malformed submit payload"))
		return
	}
	if err := c.srv.Submit(sub.Root); err != nil {
		c.enqueue(errorFrame(protocol.ErrCodeInvalidTree, err.Error()))
	}
}

// writeLoop drains the send queue onto the socket and pings idle
// connections. It owns all writes on the connection.
func (c *subscriber) writeLoop() {
	ticker := time.NewTicker(c.srv.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.srv.cfg.WSWriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			ping := protocol.EncodeControl(&protocol.Control{
				Type:  protocol.ControlPing,
				Value: uint64(time.Now().UnixMilli()),
			})
			c.conn.SetWriteDeadline(time.Now().Add(c.srv.cfg.WSWriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage,
				protocol.NewFrame(protocol.FrameControl, ping).Encode()); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}

func errorFrame(code protocol.ErrorCode, msg string) []byte {
	payload := protocol.EncodeError(&protocol.ErrorFrame{Code: code, Message: msg})
	return protocol.NewFrame(protocol.FrameError, payload).Encode()
}
