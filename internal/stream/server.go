// Package stream serves live simulation telemetry over WebSocket and
// accepts steering commands back from clients, so a browser front end
// can fly the kite against the same physics the terminal UI uses.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/kitesim/internal/sim"
)

const (
	defaultFrameInterval = 33 * time.Millisecond
	defaultStepDt        = 1.0 / 120.0
	pingInterval         = 10 * time.Second
	writeTimeout         = 5 * time.Second
)

// Frame is one telemetry update pushed to every connected client.
type Frame struct {
	Type      string        `json:"type"`
	Time      float64       `json:"time"`
	Position  [3]float64    `json:"position"`
	Velocity  [3]float64    `json:"velocity"`
	Telemetry sim.Telemetry `json:"telemetry"`
}

// Command is an inbound client message. Fields beyond Type are
// interpreted per command.
type Command struct {
	Type         string  `json:"type"`
	Value        float64 `json:"value,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	DirectionDeg float64 `json:"direction_deg,omitempty"`
	Turbulence   float64 `json:"turbulence,omitempty"`
	Length       float64 `json:"length,omitempty"`
}

// client wraps a connection with a write lock, since gorilla
// connections allow only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Server owns a simulation and steps it in real time, broadcasting
// frames to all clients. Commands from any client apply to the shared
// simulation.
type Server struct {
	upgrader websocket.Upgrader

	simMu sync.Mutex
	sim   *sim.Simulation
	clock float64

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	frameInterval time.Duration
	stepDt        float64
}

func NewServer(s *sim.Simulation) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sim:           s,
		clients:       make(map[*client]struct{}),
		frameInterval: defaultFrameInterval,
		stepDt:        defaultStepDt,
	}
}

// Run steps the simulation in real time until ctx is canceled,
// broadcasting a frame per tick of the frame interval.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := s.step(s.frameInterval.Seconds())
			s.broadcast(frame)
		}
	}
}

// step advances the simulation by elapsed wall time in fixed substeps
// and returns the resulting frame.
func (s *Server) step(elapsed float64) Frame {
	s.simMu.Lock()
	defer s.simMu.Unlock()

	steps := int(math.Ceil(elapsed / s.stepDt))
	if steps < 1 {
		steps = 1
	}
	dt := elapsed / float64(steps)
	for i := 0; i < steps; i++ {
		s.sim.Tick(dt)
	}
	s.clock += elapsed

	state := s.sim.State()
	return Frame{
		Type:      "frame",
		Time:      s.clock,
		Position:  [3]float64(state.Position),
		Velocity:  [3]float64(state.Velocity),
		Telemetry: s.sim.Telemetry(),
	}
}

func (s *Server) broadcast(frame Frame) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		if err := c.writeJSON(frame); err != nil {
			log.Printf("stream: dropping client: %v", err)
			c.conn.Close()
			delete(s.clients, c)
		}
	}
}

// HandleWS upgrades an HTTP request and services the connection until
// the client goes away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()

	log.Printf("stream: client connected from %s", conn.RemoteAddr())

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		conn.Close()
		log.Printf("stream: client disconnected: %s", conn.RemoteAddr())
	}()

	if err := c.writeJSON(map[string]string{"type": "hello"}); err != nil {
		return
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("stream: read error: %v", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("stream: bad command: %v", err)
			continue
		}
		s.apply(cmd)
	}
}

func (s *Server) apply(cmd Command) {
	s.simMu.Lock()
	defer s.simMu.Unlock()

	switch cmd.Type {
	case "steer":
		s.sim.SetSteeringAnalog(cmd.Value)
	case "reset":
		s.sim.Reset()
		s.clock = 0
	case "wind":
		s.sim.SetWindParams(cmd.Speed, cmd.DirectionDeg*math.Pi/180, cmd.Turbulence)
	case "lines":
		s.sim.SetLineLength(cmd.Length)
	default:
		log.Printf("stream: unknown command %q", cmd.Type)
	}
}

// ListenAndServe runs both the physics loop and the HTTP endpoint at
// /ws until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)

	srv := &http.Server{Addr: addr, Handler: mux}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("stream: telemetry server listening on %s/ws", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
