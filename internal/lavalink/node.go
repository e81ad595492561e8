// Package lavalink connects to a Lavalink v4 audio node: it spawns the node
// process, waits for it to accept connections, listens for player events on
// the websocket and drives guild players over REST.
package lavalink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/proxy"

	"github.com/keshon/guildtunes/internal/music/track"
	"github.com/keshon/guildtunes/pkg/retrylimit"
)

// ErrNodeNotReady is returned when a player request is made while the
// websocket session is not established.
var ErrNodeNotReady = errors.New("audio node is not ready")

// State is the connection state of the node.
type State int

const (
	StateBootstrapping State = iota
	StateConnecting
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Config describes how to reach and start the node.
type Config struct {
	URI           string
	Password      string
	ClientName    string
	SearchPrefix  string
	CacheCapacity int
	ProbeInterval time.Duration
	// SpawnCommand is the node process command line. Empty means the node
	// is managed elsewhere.
	SpawnCommand []string
	// Proxy is an optional SOCKS proxy URL used for every connection.
	Proxy string
}

// Node is a single Lavalink node. It is safe for concurrent use.
type Node struct {
	cfg     Config
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
	cache   *lru.Cache[string, track.Result]
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig

	mu        sync.RWMutex
	handler   EventHandler
	state     State
	sessionID string
	conn      *websocket.Conn
	ready     chan struct{}
	readyDone bool
}

// New builds a Node from cfg. Nothing is dialed until Connect.
func New(cfg Config) (*Node, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid node URI %q", cfg.URI)
	}
	if cfg.SearchPrefix == "" {
		cfg.SearchPrefix = "ytmsearch"
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "guildtunes"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	if cfg.Proxy != "" {
		dial, err := proxyDialer(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dial
		dialer.Proxy = nil
		dialer.NetDialContext = dial
	}

	n := &Node{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URI, "/"),
		http:    &http.Client{Transport: transport, Timeout: 15 * time.Second},
		dialer:  dialer,
		limiter: retrylimit.NewAdaptiveLimiter(20, 2, 50, 1, 0.5),
		retry: retrylimit.RetryConfig{
			MaxAttempts:    3,
			InitialDelay:   250 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			RateLimitDelay: time.Second,
			Multiplier:     2,
			Jitter:         true,
		},
		state: StateBootstrapping,
		ready: make(chan struct{}),
	}

	if cfg.CacheCapacity > 0 {
		n.cache, err = lru.New[string, track.Result](cfg.CacheCapacity)
		if err != nil {
			return nil, fmt.Errorf("failed to create search cache: %w", err)
		}
	}
	return n, nil
}

func proxyDialer(raw string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("unsupported proxy: %w", err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}, nil
}

// SetHandler sets the receiver of node events. It must be called before
// Connect.
func (n *Node) SetHandler(h EventHandler) {
	n.mu.Lock()
	n.handler = h
	n.mu.Unlock()
}

// State returns the connection state.
func (n *Node) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// SessionID returns the websocket session ID, or "" before readiness.
func (n *Node) SessionID() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sessionID
}

func (n *Node) setState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// Spawn starts the node process bound to ctx. A failure to start is fatal
// for the caller; the process dies with ctx.
func (n *Node) Spawn(ctx context.Context) error {
	if len(n.cfg.SpawnCommand) == 0 {
		log.Println("[Node] No spawn command set, expecting an external node")
		return nil
	}

	cmd := exec.CommandContext(ctx, n.cfg.SpawnCommand[0], n.cfg.SpawnCommand[1:]...)
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start node process: %w", err)
	}
	log.Printf("[Node] Started node process (pid %d): %s", cmd.Process.Pid, strings.Join(n.cfg.SpawnCommand, " "))

	go func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Printf("[ERR] Node process exited: %v", err)
		}
	}()
	return nil
}

// WaitReady probes the node at a fixed interval until it answers any HTTP
// request or ctx ends.
func (n *Node) WaitReady(ctx context.Context) error {
	n.setState(StateBootstrapping)
	return retrylimit.Poll(ctx, n.cfg.ProbeInterval, func(ctx context.Context) error {
		err := n.Probe(ctx)
		if err != nil {
			log.Printf("[Node] Waiting for node to go live... (%v)", err)
		}
		return err
	})
}

// Probe performs a single liveness check. Any HTTP response counts as live.
func (n *Node) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Connect opens the event websocket for the given bot user. The session
// becomes usable once the node sends its ready message.
func (n *Node) Connect(ctx context.Context, userID string) error {
	n.setState(StateConnecting)

	wsURL := strings.Replace(n.baseURL, "http", "ws", 1) + "/v4/websocket"
	header := http.Header{}
	header.Set("Authorization", n.cfg.Password)
	header.Set("User-Id", userID)
	header.Set("Client-Name", n.cfg.ClientName)

	conn, resp, err := n.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		n.setState(StateDisconnected)
		if resp != nil {
			return fmt.Errorf("websocket handshake failed (%s): %w", resp.Status, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()

	go n.readLoop(conn)
	return nil
}

// Close shuts the websocket down.
func (n *Node) Close() error {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return conn.Close()
}

func (n *Node) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			n.handleDisconnect(conn, err)
			return
		}
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WARN] Malformed node message: %v", err)
			continue
		}
		n.handleMessage(msg)
	}
}

func (n *Node) handleMessage(msg message) {
	switch msg.Op {
	case "ready":
		n.mu.Lock()
		n.sessionID = msg.SessionID
		n.state = StateReady
		if !n.readyDone {
			close(n.ready)
			n.readyDone = true
		}
		n.mu.Unlock()
		n.emit(NodeReady{SessionID: msg.SessionID, Resumed: msg.Resumed})

	case "event":
		switch msg.Type {
		case "TrackEndEvent":
			ev := TrackEnded{GuildID: msg.GuildID, Reason: EndReason(msg.Reason)}
			if msg.Track != nil {
				ev.Track = msg.Track.toTrack()
			}
			n.emit(ev)
		case "TrackStartEvent":
			if msg.Track != nil {
				log.Printf("[Node] Track started %q | guild=%s", msg.Track.Info.Title, msg.GuildID)
			}
		case "TrackExceptionEvent":
			if msg.Exception != nil {
				log.Printf("[WARN] Track exception | guild=%s: %s (%s)", msg.GuildID, msg.Exception.Message, msg.Exception.Severity)
			}
		case "TrackStuckEvent":
			log.Printf("[WARN] Track stuck | guild=%s", msg.GuildID)
		case "WebSocketClosedEvent":
			log.Printf("[WARN] Voice websocket closed | guild=%s code=%d reason=%s", msg.GuildID, msg.Code, msg.Reason)
		}

	case "playerUpdate", "stats":
	default:
		log.Printf("[Node] Unknown op %q", msg.Op)
	}
}

func (n *Node) handleDisconnect(conn *websocket.Conn, err error) {
	n.mu.Lock()
	wasOurs := n.conn == conn
	if wasOurs {
		n.conn = nil
	}
	n.state = StateDisconnected
	n.sessionID = ""
	if n.readyDone {
		n.ready = make(chan struct{})
		n.readyDone = false
	}
	n.mu.Unlock()

	if !wasOurs {
		log.Println("[Node] Websocket closed")
		return
	}
	log.Printf("[ERR] Lost connection to node: %v", err)
	n.emit(NodeDisconnected{Err: err})
}

func (n *Node) emit(e Event) {
	n.mu.RLock()
	h := n.handler
	n.mu.RUnlock()
	if h != nil {
		h.HandleEvent(e)
	}
}

// awaitSession blocks until the websocket session is ready.
func (n *Node) awaitSession(ctx context.Context) (string, error) {
	for {
		n.mu.RLock()
		sid, ready := n.sessionID, n.ready
		n.mu.RUnlock()
		if sid != "" {
			return sid, nil
		}
		select {
		case <-ready:
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrNodeNotReady, ctx.Err())
		}
	}
}
