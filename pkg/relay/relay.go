// Package relay exposes the bridge to host applications over websockets.
// Every inbound chat message is pushed to all connected peers; peers push
// back messages to forward into the room.
package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/skybridge/pkg/bus"
	"github.com/tinyland-inc/skybridge/pkg/config"
	"github.com/tinyland-inc/skybridge/pkg/logger"
)

const (
	FrameMessage = "message"
	FrameForward = "forward"
	FrameSend    = "send"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameError   = "error"

	peerSendBuffer = 64
	writeTimeout   = 10 * time.Second
)

// Frame is the JSON envelope exchanged with peers.
type Frame struct {
	Type   string `json:"type"`
	Sender string `json:"sender,omitempty"`
	Room   string `json:"room,omitempty"`
	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

type peer struct {
	id     string
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func (p *peer) close() {
	p.once.Do(func() { close(p.done) })
}

type Server struct {
	bus     *bus.MessageBus
	channel string
	source  string
	token   string

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[string]*peer
}

// NewServer creates a relay that forwards peer messages to channel.
func NewServer(cfg config.RelayConfig, msgBus *bus.MessageBus, channel string) *Server {
	return &Server{
		bus:     msgBus,
		channel: channel,
		source:  cfg.Source,
		token:   cfg.Token,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[string]*peer),
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if got == "" {
		got = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) == 1
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("relay", "Websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	p := &peer{
		id:     uuid.New().String(),
		conn:   conn,
		sendCh: make(chan []byte, peerSendBuffer),
		done:   make(chan struct{}),
	}
	s.attach(p)
	defer s.detach(p)

	go s.writePump(p)
	s.readLoop(r.Context(), p)
}

func (s *Server) attach(p *peer) {
	s.mu.Lock()
	s.peers[p.id] = p
	n := len(s.peers)
	s.mu.Unlock()
	logger.InfoCF("relay", "Peer attached", map[string]any{"peer": p.id, "peers": n})
}

func (s *Server) detach(p *peer) {
	s.mu.Lock()
	delete(s.peers, p.id)
	n := len(s.peers)
	s.mu.Unlock()
	p.close()
	logger.InfoCF("relay", "Peer detached", map[string]any{"peer": p.id, "peers": n})
}

// PeerCount returns the number of connected peers.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

func (s *Server) readLoop(ctx context.Context, p *peer) {
	for {
		var f Frame
		if err := p.conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugCF("relay", "Peer read ended", map[string]any{"peer": p.id, "error": err.Error()})
			}
			return
		}
		s.handleFrame(ctx, p, f)
	}
}

func (s *Server) handleFrame(ctx context.Context, p *peer, f Frame) {
	switch f.Type {
	case FramePing:
		s.sendFrame(p, Frame{Type: FramePong})
	case FrameForward, FrameSend:
		if f.Text == "" {
			s.sendFrame(p, Frame{Type: FrameError, Error: "text is required"})
			return
		}
		msg := bus.OutboundMessage{Channel: s.channel, Text: f.Text}
		if f.Type == FrameForward {
			if f.Sender == "" {
				s.sendFrame(p, Frame{Type: FrameError, Error: "sender is required"})
				return
			}
			msg.Sender = f.Sender
			msg.Source = f.Source
			if msg.Source == "" {
				msg.Source = s.source
			}
		}
		if err := s.bus.PublishOutbound(ctx, msg); err != nil {
			s.sendFrame(p, Frame{Type: FrameError, Error: err.Error()})
		}
	default:
		s.sendFrame(p, Frame{Type: FrameError, Error: "unknown frame type " + f.Type})
	}
}

func (s *Server) sendFrame(p *peer, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case p.sendCh <- data:
	case <-p.done:
	default:
		logger.WarnCF("relay", "Peer send buffer full, dropping frame", map[string]any{"peer": p.id})
	}
}

func (s *Server) writePump(p *peer) {
	defer func() {
		p.close()
		p.conn.Close()
	}()

	for {
		select {
		case data := <-p.sendCh:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.WarnCF("relay", "Peer write failed", map[string]any{"peer": p.id, "error": err.Error()})
				return
			}
		case <-p.done:
			return
		}
	}
}

// Broadcast pushes msg to every connected peer. Slow peers miss messages
// rather than stalling the others.
func (s *Server) Broadcast(msg bus.InboundMessage) {
	frame := Frame{Type: FrameMessage, Sender: msg.Sender, Room: msg.Room, Text: msg.Text}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.peers {
		s.sendFrame(p, frame)
	}
}

// Run broadcasts inbound bus messages until the bus closes or ctx ends.
func (s *Server) Run(ctx context.Context) {
	for {
		msg, ok := s.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		s.Broadcast(msg)
	}
}

// Close disconnects every peer.
func (s *Server) Close() {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge stopping"),
			time.Now().Add(time.Second))
		p.close()
	}
}
