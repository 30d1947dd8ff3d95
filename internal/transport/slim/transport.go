// Package slim implements the SLIM transport variant: a session-oriented,
// identity-authenticated carrier built on websocket connections. Each node
// both listens for inbound sessions at its own identity's endpoint and
// dials peer endpoints as a client to publish, request/reply, broadcast, or
// start a group chat.
package slim

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/internal/transport/pending"
)

// Transport is the SLIM carrier. It satisfies transport.Transport.
type Transport struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	identity   string
	creds      transport.Credentials
	listenAddr string
	server     *http.Server
	closed     bool

	subs       map[string]*subscription
	routes     map[string]string
	peers      map[string]*peerConn
	replyConns map[string]*peerConn
	groups     map[string]*groupChatSession

	pending *pending.Table
}

// New constructs an unconnected SLIM transport.
func New(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs:       make(map[string]*subscription),
		routes:     make(map[string]string),
		peers:      make(map[string]*peerConn),
		replyConns: make(map[string]*peerConn),
		groups:     make(map[string]*groupChatSession),
		pending:    pending.New(),
	}
}

// SetRoute binds topic to a peer endpoint. SLIM routes are set before first
// publish (spec.md §4.1); callers resolve the endpoint from the peer's
// agent card URL before wiring the route.
func (t *Transport) SetRoute(topic, endpoint string) {
	t.mu.Lock()
	t.routes[topic] = endpoint
	t.mu.Unlock()
}

func (t *Transport) route(topic string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	endpoint, ok := t.routes[topic]
	return endpoint, ok
}

// Connect starts this node's own listener at endpoint, authenticating
// inbound sessions against creds.SharedSecret when set. A repeated call is
// a no-op when endpoint equals the address ListenAddr reports; any other
// endpoint, including a repeated ":0" or a host name, fails with ErrConnect
// while the listener runs.
func (t *Transport) Connect(ctx context.Context, endpoint string, creds transport.Credentials) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil && t.listenAddr == endpoint {
		return nil
	}
	if t.server != nil {
		return fmt.Errorf("%w: already listening on %s", transport.ErrConnect, t.listenAddr)
	}

	t.identity = creds.Identity
	t.creds = creds

	ln, err := net.Listen("tcp", endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/slim", t.handleUpgrade)
	srv := &http.Server{Handler: mux}

	t.server = srv
	t.listenAddr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.logger.Errorf("slim: listener on %s stopped: %v", endpoint, err)
		}
	}()

	return nil
}

// ListenAddr returns the resolved address this transport is listening on,
// useful when Connect was given a ":0" endpoint for an ephemeral port.
func (t *Transport) ListenAddr() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listenAddr
}

func (t *Transport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	secret := t.creds.SharedSecret
	t.mu.RUnlock()

	if secret != "" && r.Header.Get("X-Slim-Secret") != secret {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Errorf("slim: upgrade failed: %v", err)
		return
	}

	pc := newPeerConn(conn, r.Header.Get("X-Slim-From"))
	go pc.writePump()
	go t.readPump(pc)
}

func (t *Transport) getOrDialPeer(endpoint string) (*peerConn, error) {
	t.mu.RLock()
	if pc, ok := t.peers[endpoint]; ok {
		t.mu.RUnlock()
		return pc, nil
	}
	t.mu.RUnlock()

	header := http.Header{}
	t.mu.RLock()
	header.Set("X-Slim-From", t.identity)
	if t.creds.SharedSecret != "" {
		header.Set("X-Slim-Secret", t.creds.SharedSecret)
	}
	t.mu.RUnlock()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+endpoint+"/slim", header)
	if err != nil {
		return nil, err
	}

	pc := newPeerConn(conn, endpoint)

	t.mu.Lock()
	if existing, ok := t.peers[endpoint]; ok {
		t.mu.Unlock()
		pc.close()
		return existing, nil
	}
	t.peers[endpoint] = pc
	t.mu.Unlock()

	go pc.writePump()
	go t.readPump(pc)

	return pc, nil
}

func (t *Transport) readPump(pc *peerConn) {
	defer pc.conn.Close()
	for {
		_, data, err := pc.conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.logger.Warnf("slim: %v: %v", transport.ErrDecode, err)
			continue
		}
		t.dispatch(pc, env)
	}
}

func (t *Transport) dispatch(pc *peerConn, env envelope) {
	switch env.Kind {
	case kindPublish:
		t.deliver(env.Topic, transport.NewFrame(env.Payload, env.From, "", env.SessionID))
	case kindRelay:
		t.deliver(env.Channel, transport.NewFrame(env.Payload, env.From, "", env.SessionID))
	case kindRequest, kindBroadcast:
		t.mu.Lock()
		t.replyConns[env.SessionID] = pc
		t.mu.Unlock()
		t.deliver(env.Topic, transport.NewFrame(env.Payload, env.From, env.SessionID, env.SessionID))
	case kindReply:
		t.pending.Resolve(env.SessionID, env.Payload)
	case kindInvite:
		t.logger.Infof("slim: invited to group chat channel=%s by=%s", env.Channel, env.From)
	case kindLeave:
		t.logger.Debugf("slim: %s left channel=%s", env.From, env.Channel)
	default:
		t.logger.Warnf("slim: unknown frame kind %q", env.Kind)
	}
}

func (t *Transport) deliver(topic string, frame transport.Frame) {
	t.mu.RLock()
	sub := t.subs[topic]
	t.mu.RUnlock()
	if sub == nil {
		t.logger.Debugf("slim: %v: no subscriber for topic %q", transport.ErrDecode, topic)
		return
	}
	sub.enqueue(frame)
}

// Subscribe registers handler for every inbound frame addressed to topic.
func (t *Transport) Subscribe(ctx context.Context, topic string, handler transport.Handler) (transport.Subscription, error) {
	t.mu.Lock()
	if _, exists := t.subs[topic]; exists {
		t.mu.Unlock()
		return nil, transport.ErrAlreadySubscribed
	}
	sub := &subscription{
		topic:   topic,
		handler: handler,
		queue:   make(chan transport.Frame, 64),
		done:    make(chan struct{}),
		t:       t,
	}
	t.subs[topic] = sub
	t.mu.Unlock()

	go sub.loop(ctx)

	return sub, nil
}

// Publish sends payload to topic. If topic names a pending reply session
// (i.e. the caller is replying to an inbound request or broadcast), the
// reply is routed back on the originating connection rather than through
// the route table.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte, opts transport.PublishOptions) error {
	t.mu.Lock()
	if pc, ok := t.replyConns[topic]; ok {
		delete(t.replyConns, topic)
		identity := t.identity
		t.mu.Unlock()
		return pc.send(envelope{Kind: kindReply, SessionID: topic, From: identity, Payload: payload})
	}
	endpoint, hasRoute := t.routes[topic]
	identity := t.identity
	t.mu.Unlock()

	if !hasRoute {
		return fmt.Errorf("%w: no route for topic %q", transport.ErrTransport, topic)
	}

	pc, err := t.getOrDialPeer(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	return pc.send(envelope{Kind: kindPublish, Topic: topic, SessionID: sessionID, From: identity, Payload: payload})
}

// RequestReply sends payload to topic and awaits exactly one correlated
// reply, timing out with transport.ErrTimeout.
func (t *Transport) RequestReply(ctx context.Context, topic string, payload []byte, timeout time.Duration) ([]byte, error) {
	endpoint, ok := t.route(topic)
	if !ok {
		return nil, fmt.Errorf("%w: no route for topic %q", transport.ErrTransport, topic)
	}

	pc, err := t.getOrDialPeer(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}

	t.mu.RLock()
	identity := t.identity
	t.mu.RUnlock()

	sessionID := uuid.New().String()
	replyCh, errCh := t.pending.Register(sessionID)

	if err := pc.send(envelope{Kind: kindRequest, Topic: topic, SessionID: sessionID, From: identity, Payload: payload}); err != nil {
		t.pending.Forget(sessionID)
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		t.pending.Forget(sessionID)
		return nil, transport.ErrTimeout
	case <-ctx.Done():
		t.pending.Forget(sessionID)
		return nil, ctx.Err()
	}
}

// Broadcast sends payload to every reachable recipient and collects up to
// expected replies, returning whatever arrived within timeout.
func (t *Transport) Broadcast(ctx context.Context, topic string, payload []byte, recipients []string, expected int, timeout time.Duration) ([][]byte, error) {
	t.mu.RLock()
	identity := t.identity
	t.mu.RUnlock()

	type slot struct {
		replyCh <-chan []byte
		errCh   <-chan error
		sid     string
	}
	var slots []slot

	for _, recipient := range recipients {
		endpoint, ok := t.route(recipient)
		if !ok {
			t.logger.Warnf("slim: broadcast: no route for recipient %q, skipping", recipient)
			continue
		}
		pc, err := t.getOrDialPeer(endpoint)
		if err != nil {
			t.logger.Warnf("slim: broadcast: dial %q failed: %v", recipient, err)
			continue
		}
		sid := uuid.New().String()
		replyCh, errCh := t.pending.Register(sid)
		if err := pc.send(envelope{Kind: kindBroadcast, Topic: topic, SessionID: sid, From: identity, Payload: payload}); err != nil {
			t.pending.Forget(sid)
			continue
		}
		slots = append(slots, slot{replyCh, errCh, sid})
	}

	resultsCh := make(chan []byte, len(slots))
	for _, s := range slots {
		go func(s slot) {
			select {
			case payload := <-s.replyCh:
				resultsCh <- payload
			case <-s.errCh:
			case <-ctx.Done():
			}
		}(s)
	}

	deadline := time.After(timeout)
	var results [][]byte
	for i := 0; i < len(slots); i++ {
		if expected > 0 && len(results) >= expected {
			break
		}
		select {
		case payload := <-resultsCh:
			results = append(results, payload)
		case <-deadline:
			return results, nil
		case <-ctx.Done():
			return results, ctx.Err()
		}
	}
	return results, nil
}

// StartGroupChat opens a moderated session on channel, inviting each
// participant by dialing its routed endpoint.
func (t *Transport) StartGroupChat(ctx context.Context, channel string, participants []string) (transport.GroupChatSession, error) {
	t.mu.RLock()
	identity := t.identity
	t.mu.RUnlock()

	sess := &groupChatSession{
		channel:      channel,
		participants: append([]string(nil), participants...),
		members:      make(map[string]*peerConn),
		inbox:        make(chan transport.Frame, 64),
		closed:       make(chan struct{}),
		t:            t,
	}

	sub, err := t.Subscribe(ctx, channel, sess.onRelay)
	if err != nil {
		return nil, err
	}
	sess.sub = sub

	for _, participant := range participants {
		endpoint, ok := t.route(participant)
		if !ok {
			t.logger.Warnf("slim: groupchat %s: no route for participant %q, skipping invite", channel, participant)
			continue
		}
		pc, err := t.getOrDialPeer(endpoint)
		if err != nil {
			t.logger.Warnf("slim: groupchat %s: dial %q failed: %v", channel, participant, err)
			continue
		}
		sess.mu.Lock()
		sess.members[participant] = pc
		sess.mu.Unlock()
		_ = pc.send(envelope{Kind: kindInvite, Channel: channel, From: identity})
	}

	t.mu.Lock()
	t.groups[channel] = sess
	t.mu.Unlock()

	return sess, nil
}

// Close terminates every subscription, peer connection, and pending
// operation, then shuts down the listener if one was started.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	subs := t.subs
	t.subs = make(map[string]*subscription)
	peers := t.peers
	t.peers = make(map[string]*peerConn)
	groups := t.groups
	t.groups = make(map[string]*groupChatSession)
	server := t.server
	t.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
	for _, g := range groups {
		close(g.closed)
	}
	for _, pc := range peers {
		pc.close()
	}
	t.pending.CancelAll()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
