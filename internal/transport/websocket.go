// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "grfnn/internal/log"
)

// redialCooldown throttles reconnection attempts so a dead relay does not
// turn every emission into a dial.
const redialCooldown = 2 * time.Second

// RelayClient implements the Transport interface over a websocket
// connection to the external relay. Messages are queued on a buffered
// channel and written by a single goroutine; when the buffer is full or
// the relay is unreachable, messages are dropped. The relay defines its
// own retry semantics for its observers — this side is fire-and-forget.
type RelayClient struct {
	url      string
	sendCh   chan Message
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Owned by the writer goroutine.
	conn     *websocket.Conn
	lastDial time.Time
	dropped  uint64
}

// NewRelayClient creates a relay client for the given websocket URL and
// starts its writer goroutine. The first dial happens lazily on the first
// Send.
func NewRelayClient(url string) *RelayClient {
	rc := &RelayClient{
		url:    url,
		sendCh: make(chan Message, 256),
		done:   make(chan struct{}),
	}

	rc.wg.Add(1)
	go rc.writeLoop()

	applog.Infof("transport: relay client targeting %s", url)
	return rc
}

// Send queues a message for delivery. It never blocks; if the queue is
// full the message is dropped.
func (rc *RelayClient) Send(msg Message) error {
	select {
	case rc.sendCh <- msg:
	default:
		applog.Debugf("transport: send queue full, dropping %s", msg.Key)
	}
	return nil
}

// Close stops the writer goroutine and closes the connection.
func (rc *RelayClient) Close() error {
	rc.stopOnce.Do(func() {
		close(rc.done)
	})
	rc.wg.Wait()
	return nil
}

func (rc *RelayClient) writeLoop() {
	defer rc.wg.Done()
	defer func() {
		if rc.conn != nil {
			rc.conn.Close()
			rc.conn = nil
		}
	}()

	for {
		select {
		case <-rc.done:
			return
		case msg := <-rc.sendCh:
			if !rc.ensureConn() {
				rc.dropped++
				continue
			}
			if err := rc.conn.WriteJSON(msg); err != nil {
				applog.Warnf("transport: relay write failed: %v", err)
				rc.conn.Close()
				rc.conn = nil
				rc.dropped++
			}
		}
	}
}

// ensureConn dials the relay if there is no live connection, rate limited
// by redialCooldown. Reports whether a connection is available.
func (rc *RelayClient) ensureConn() bool {
	if rc.conn != nil {
		return true
	}
	if time.Since(rc.lastDial) < redialCooldown {
		return false
	}
	rc.lastDial = time.Now()

	conn, _, err := websocket.DefaultDialer.Dial(rc.url, nil)
	if err != nil {
		applog.Warnf("transport: relay dial %s failed: %v (dropped so far: %d)",
			rc.url, err, rc.dropped)
		return false
	}

	applog.Infof("transport: connected to relay %s", rc.url)
	rc.conn = conn

	// Drain the relay's reads so pings and close frames are serviced.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return true
}

// Ensure RelayClient satisfies the interface at compile time.
var _ Transport = (*RelayClient)(nil)
