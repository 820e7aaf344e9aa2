package server

import (
	"log/slog"
	"net"

	"crypto_wallet/internal/domain"
)

const outboxSize = 16

// Session binds one live connection to an authenticated account, or none.
// All fields except the outbox are owned by the dispatcher goroutine; the
// outbox is drained by the session's writer goroutine so a slow client never
// blocks the dispatcher.
type Session struct {
	id      uint64
	conn    net.Conn
	remote  string
	account *domain.Account

	outbox chan string
}

func newSession(id uint64, conn net.Conn) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		outbox: make(chan string, outboxSize),
	}
}

// authenticated reports whether an account is bound.
func (s *Session) authenticated() bool {
	return s.account != nil
}

// send queues a reply for the writer goroutine. Dispatcher-only.
func (s *Session) send(msg string) {
	select {
	case s.outbox <- msg:
	default:
		// Outbox full: the client is not reading replies. Drop the
		// connection rather than stall the dispatcher.
		slog.Warn("Session outbox full, closing connection", slog.String("remote", s.remote))
		s.conn.Close()
	}
}

// writeLoop drains the outbox onto the connection. Runs in its own
// goroutine; exits when the outbox is closed by the dispatcher.
func (s *Session) writeLoop() {
	for msg := range s.outbox {
		if _, err := s.conn.Write([]byte(msg + "\n")); err != nil {
			slog.Debug("Session write failed", slog.String("remote", s.remote), slog.Any("error", err))
			s.conn.Close()
			// Keep draining so the dispatcher's sends never block
		}
	}
}
