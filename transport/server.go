package transport

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hivesim/warehouse"
)

// Server accepts websocket connections and turns each into a Session
// attached to the same underlying Warehouse.
type Server struct {
	wh  *warehouse.Warehouse
	log *slog.Logger

	upgrader  websocket.Upgrader
	allowlist *Allowlist

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// SetAllowlist installs a as the address allowlist new connections are
// checked against. A nil or disabled allowlist accepts every address.
func (srv *Server) SetAllowlist(a *Allowlist) { srv.allowlist = a }

// NewServer constructs a Server over wh and registers it as wh's session
// counter for ACK-gate sizing. Must be called before wh.Run starts.
func NewServer(wh *warehouse.Warehouse, log *slog.Logger) *Server {
	srv := &Server{
		wh:       wh,
		log:      log,
		sessions: make(map[*Session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The simulation is not browser-embedded: any origin that can
			// reach the listen address is treated as trusted; the listener
			// performs no origin check of its own.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	wh.SetSessionCounter(srv.SessionCount)
	return srv
}

// ServeHTTP upgrades the request to a websocket connection and serves a
// Session on it until the connection closes.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if addr, err := net.ResolveTCPAddr("tcp", r.RemoteAddr); err == nil && !srv.allowlist.Allow(addr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.log.Debug("websocket upgrade failed", "err", err, "raddr", r.RemoteAddr)
		return
	}
	session := newSession(conn, srv.wh, srv.log)
	srv.track(session)
	defer srv.untrack(session)

	srv.log.Info("session connected", "session", session.ID, "raddr", r.RemoteAddr)
	session.Serve()
	srv.log.Info("session disconnected", "session", session.ID)
}

func (srv *Server) track(s *Session) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.sessions[s] = struct{}{}
}

func (srv *Server) untrack(s *Session) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.sessions, s)
}

// SessionCount reports how many sessions are currently connected, used to
// arm the per-tick ACK gate.
func (srv *Server) SessionCount() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.sessions)
}
