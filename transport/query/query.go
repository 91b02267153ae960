// Package query implements a tiny GameSpy-style UDP status responder: any
// client that knows the handshake/token dance can ask how a running
// warehouse simulation is doing without opening a full websocket session.
// It is adapted from a Minecraft query responder that answered the same
// protocol over a game server's RakNet socket; here it owns a bare UDP
// socket since the simulation has no packet transport of its own to piggy-
// back on.
package query

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"
)

var queryVersion = [2]byte{0xfe, 0xfd}

const (
	queryTypeHandshake   = 9
	queryTypeInformation = 0
)

var querySplitNum = [...]byte{'s', 'p', 'l', 'i', 't', 'n', 'u', 'm', 0x00, 0x80, 0x00}

// Logger is the logging capability the responder needs.
type Logger interface {
	Debug(msg string, args ...any)
}

// Provider supplies the current status snapshot on demand, called once per
// validated information request.
type Provider func() Status

// Status is the simulation status reported over the query protocol.
type Status struct {
	Name        string
	GridHeight  int
	GridWidth   int
	AgentCount  int
	ActiveTasks int
	PendingOrds int
	Tick        uint64
}

func (s Status) keyValues() []keyValue {
	return []keyValue{
		{"hostname", s.Name},
		{"gametype", "WAREHOUSE"},
		{"grid", strconv.Itoa(s.GridHeight) + "x" + strconv.Itoa(s.GridWidth)},
		{"numagents", strconv.Itoa(s.AgentCount)},
		{"numtasks", strconv.Itoa(s.ActiveTasks)},
		{"numpending", strconv.Itoa(s.PendingOrds)},
		{"tick", strconv.FormatUint(s.Tick, 10)},
	}
}

type keyValue struct{ key, value string }

type token struct {
	value  int32
	expiry time.Time
}

// Responder answers query protocol requests received on a UDP socket.
type Responder struct {
	conn     net.PacketConn
	log      Logger
	provider Provider

	mu     sync.Mutex
	tokens map[string]token
	rng    *rand.Rand

	closed chan struct{}
}

// Listen opens a UDP socket at addr and returns a Responder ready to Serve.
func Listen(addr string, log Logger, provider Provider) (*Responder, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Responder{
		conn:     conn,
		log:      log,
		provider: provider,
		tokens:   make(map[string]token),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		closed:   make(chan struct{}),
	}, nil
}

// Close releases the responder's socket.
func (r *Responder) Close() error {
	close(r.closed)
	return r.conn.Close()
}

// Serve reads and answers query requests until Close is called.
func (r *Responder) Serve() {
	buf := make([]byte, 1500)
	for {
		n, addr, err := r.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-r.closed:
				return
			default:
				r.log.Debug("query read failed", "err", err)
				return
			}
		}
		r.handle(buf[:n], addr)
	}
}

func (r *Responder) handle(b []byte, addr net.Addr) {
	if len(b) < 7 || b[0] != queryVersion[0] || b[1] != queryVersion[1] {
		return
	}
	reqType := b[2]
	sequence := int32(binary.BigEndian.Uint32(b[3:7]))
	switch reqType {
	case queryTypeHandshake:
		tok := r.newToken(addr.String())
		r.writeHandshake(addr, sequence, tok)
	case queryTypeInformation:
		if len(b) <= 7 {
			return
		}
		tok, ok := parseTokenValue(b[7:])
		if !ok || !r.validateToken(addr.String(), tok) {
			return
		}
		r.writeInfo(addr, sequence)
	}
}

func (r *Responder) newToken(addr string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	value := r.rng.Int31()
	r.tokens[addr] = token{value: value, expiry: time.Now().Add(30 * time.Second)}
	return value
}

func (r *Responder) validateToken(addr string, value int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[addr]
	if !ok || time.Now().After(tok.expiry) || tok.value != value {
		delete(r.tokens, addr)
		return false
	}
	return true
}

func (r *Responder) writeHandshake(addr net.Addr, sequence, tok int32) {
	buf := bytes.NewBuffer(make([]byte, 0, 17))
	buf.WriteByte(queryTypeHandshake)
	_ = binary.Write(buf, binary.BigEndian, sequence)
	tokenStr := strconv.FormatInt(int64(tok), 10)
	if len(tokenStr) > 12 {
		tokenStr = tokenStr[:12]
	}
	buf.WriteString(tokenStr)
	if padding := 12 - len(tokenStr); padding > 0 {
		buf.Write(make([]byte, padding))
	}
	if _, err := r.conn.WriteTo(buf.Bytes(), addr); err != nil {
		r.log.Debug("query handshake write failed", "err", err, "raddr", addr.String())
	}
}

func (r *Responder) writeInfo(addr net.Addr, sequence int32) {
	status := r.provider()

	buf := bytes.NewBuffer(make([]byte, 0, 256))
	buf.WriteByte(queryTypeInformation)
	_ = binary.Write(buf, binary.BigEndian, sequence)
	buf.Write(querySplitNum[:])

	for _, kv := range status.keyValues() {
		buf.WriteString(kv.key)
		buf.WriteByte(0x00)
		buf.WriteString(kv.value)
		buf.WriteByte(0x00)
	}
	buf.WriteByte(0x00)

	if _, err := r.conn.WriteTo(buf.Bytes(), addr); err != nil {
		r.log.Debug("query info write failed", "err", err, "raddr", addr.String())
	}
}

func parseTokenValue(payload []byte) (int32, bool) {
	trimmed := bytes.TrimRight(payload, "\x00")
	if len(trimmed) > 0 {
		if value, err := strconv.ParseInt(string(trimmed), 10, 32); err == nil {
			return int32(value), true
		}
	}
	if len(payload) >= 4 {
		return int32(binary.BigEndian.Uint32(payload[:4])), true
	}
	return 0, false
}
