package rpc

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/google/uuid"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

const (
	LogsSubscribe    = "logsSubscribe"
	LogsUnsubscribe  = "logsUnsubscribe"
	LogsNotification = "logsNotification"
)

type WebSocketRequest struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type WebSocketResponse struct {
	ID     uint64       `json:"id"`
	Result any          `json:"result,omitempty"`
	Error  *json2.Error `json:"error,omitempty"`
}

type SubscribeParams struct {
	// ProgramID filters notifications to one program. Empty means all.
	ProgramID string `json:"programId,omitempty"`
}

type UnsubscribeParams struct {
	Subscription string `json:"subscription"`
}

type LogsNotificationParams struct {
	Subscription string           `json:"subscription"`
	Result       *runtime.Receipt `json:"result"`
}

type WebSocketNotification struct {
	Method string                  `json:"method"`
	Params *LogsNotificationParams `json:"params"`
}

// WebSocketServer pushes receipts to subscribed clients as they are
// recorded by the runtime.
type WebSocketServer struct {
	log      logging.Logger
	upgrader websocket.Upgrader

	lock   sync.RWMutex
	conns  map[*wsConn]struct{}
	closed bool

	unsubscribe func()
}

func NewWebSocketServer(log logging.Logger, rt Runtime) *WebSocketServer {
	s := &WebSocketServer{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: map[*wsConn]struct{}{},
	}
	s.unsubscribe = rt.Subscribe(s.broadcast)
	return s
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	lock sync.Mutex
	// subscription id -> program filter
	subs map[string]string
}

func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade", zap.Error(err))
		return
	}
	c := &wsConn{
		conn: conn,
		send: make(chan []byte, outboundBuffer),
		subs: map[string]string{},
	}
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.lock.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)

	s.lock.Lock()
	delete(s.conns, c)
	s.lock.Unlock()
	close(c.send)
}

func (s *WebSocketServer) readLoop(c *wsConn) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("unexpected close", zap.Error(err))
			}
			return
		}
		resp := s.handle(c, msg)
		b, err := json.Marshal(resp)
		if err != nil {
			s.log.Warn("failed to marshal response", zap.Error(err))
			continue
		}
		c.enqueue(b)
	}
}

func (s *WebSocketServer) handle(c *wsConn, msg []byte) *WebSocketResponse {
	var req WebSocketRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return &WebSocketResponse{Error: &json2.Error{Code: json2.E_PARSE, Message: err.Error()}}
	}
	resp := &WebSocketResponse{ID: req.ID}
	switch req.Method {
	case LogsSubscribe:
		var params SubscribeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				resp.Error = &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
				return resp
			}
		}
		if params.ProgramID != "" {
			if _, err := program.ParseID(params.ProgramID); err != nil {
				resp.Error = &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
				return resp
			}
		}
		id := uuid.New().String()
		c.lock.Lock()
		c.subs[id] = params.ProgramID
		c.lock.Unlock()
		resp.Result = id
	case LogsUnsubscribe:
		var params UnsubscribeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
			return resp
		}
		c.lock.Lock()
		_, ok := c.subs[params.Subscription]
		delete(c.subs, params.Subscription)
		c.lock.Unlock()
		resp.Result = ok
	default:
		resp.Error = &json2.Error{Code: json2.E_NO_METHOD, Message: "unknown method " + req.Method}
	}
	return resp
}

func (s *WebSocketServer) writeLoop(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the message when the client is not keeping up.
func (c *wsConn) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (s *WebSocketServer) broadcast(receipt *runtime.Receipt) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for c := range s.conns {
		c.lock.Lock()
		for id, filter := range c.subs {
			if filter != "" && filter != receipt.ProgramID {
				continue
			}
			b, err := json.Marshal(&WebSocketNotification{
				Method: LogsNotification,
				Params: &LogsNotificationParams{Subscription: id, Result: receipt},
			})
			if err != nil {
				s.log.Warn("failed to marshal notification", zap.Error(err))
				continue
			}
			if !c.enqueue(b) {
				s.log.Debug("dropped notification",
					zap.String("subscription", id),
					zap.String("receipt", receipt.ID),
				)
			}
		}
		c.lock.Unlock()
	}
}

// Close stops receiving receipts from the runtime and disconnects every
// client. Hijacked connections are not closed by http.Server.Shutdown.
func (s *WebSocketServer) Close() {
	s.unsubscribe()

	s.lock.Lock()
	defer s.lock.Unlock()

	s.closed = true
	for c := range s.conns {
		_ = c.conn.Close()
	}
}
