package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/playfair/core/errors"
	"github.com/FocuswithJustin/playfair/core/playfair"
	"github.com/FocuswithJustin/playfair/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// EndOfText flushes a session when sent as a whole message.
	EndOfText = "\x04"
)

// Reply types.
const (
	ReplyDigraphs = "digraphs"
	ReplyDone     = "done"
	ReplyError    = "error"
)

// Reply is the JSON message sent for every message a client sends.
type Reply struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	// Digraphs holds the pairs completed by this message, space separated.
	Digraphs  string `json:"digraphs"`
	Letters   int64  `json:"letters"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// messageRateBucket is a token bucket limiting messages per second.
type messageRateBucket struct {
	tokens         float64
	capacity       float64
	refillRate     float64
	lastRefillTime time.Time
	now            func() time.Time
}

func newMessageRateBucket(messagesPerSecond int, now func() time.Time) *messageRateBucket {
	return &messageRateBucket{
		tokens:         float64(messagesPerSecond) * 2,
		capacity:       float64(messagesPerSecond) * 2,
		refillRate:     float64(messagesPerSecond),
		lastRefillTime: now(),
		now:            now,
	}
}

// allow takes a token if one is available.
func (mb *messageRateBucket) allow() bool {
	t := mb.now()
	elapsed := t.Sub(mb.lastRefillTime).Seconds()
	mb.tokens = min(mb.capacity, mb.tokens+elapsed*mb.refillRate)
	mb.lastRefillTime = t
	if mb.tokens >= 1 {
		mb.tokens--
		return true
	}
	return false
}

// conn is one websocket client driving one cipher session. Replies are
// written by the read loop; only pings come from another goroutine, which
// gorilla permits through WriteControl.
type conn struct {
	ctx     context.Context
	ws      *websocket.Conn
	id      string
	session *playfair.Session
	limiter *messageRateBucket
	closed  sync.Once
	done    chan struct{}
}

func (c *conn) reply(typ string, ds []playfair.Digraph, msg string) error {
	data, err := json.Marshal(Reply{
		Type:      typ,
		Session:   c.id,
		Digraphs:  playfair.Join(ds, " "),
		Letters:   c.session.Letters(),
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// finish flushes the session, sends the final reply and a close frame.
func (c *conn) finish(code int, text string) {
	c.closed.Do(func() {
		ds, err := c.session.Close()
		switch {
		case errors.Is(err, errors.ErrEmptyInput):
			c.reply(ReplyError, nil, "no letters to process")
		case err != nil:
			c.reply(ReplyError, nil, err.Error())
		default:
			c.reply(ReplyDone, ds, "")
		}
		c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	})
}

func (c *conn) readLoop() {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	c.ws.SetCloseHandler(func(code int, text string) error {
		c.finish(websocket.CloseNormalClosure, "")
		return nil
	})

	for {
		typ, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.LoggerFromContext(c.ctx).Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if c.limiter != nil && !c.limiter.allow() {
			logging.SecurityEvent("rate_limited", "server", "session_id", c.id)
			c.closed.Do(func() {
				c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"), time.Now().Add(writeWait))
			})
			return
		}
		if typ != websocket.TextMessage {
			c.reply(ReplyError, nil, "text messages only")
			continue
		}
		if string(message) == EndOfText {
			c.finish(websocket.CloseNormalClosure, "")
			return
		}
		ds, err := c.session.Push(message)
		if err != nil {
			c.reply(ReplyError, nil, err.Error())
			return
		}
		if err := c.reply(ReplyDigraphs, ds, ""); err != nil {
			return
		}
	}
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
