// Package server is the network front end: one dispatcher goroutine owns
// every session and every wallet, draining a single inbox of connection
// events. Per-connection reader goroutines only decode lines; per-connection
// writer goroutines only flush replies. No command handler blocks on network
// or file I/O inside the dispatcher.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"crypto_wallet/internal/domain"
	"crypto_wallet/internal/infra"
	"crypto_wallet/internal/infra/storage"
	"crypto_wallet/internal/protocol"
	"crypto_wallet/internal/service"
)

const (
	maxLineBytes = 2048
	inboxSize    = 256
)

// Connection events, consumed only by the dispatcher goroutine.
type event interface{}

type connectEvent struct{ sess *Session }

type lineEvent struct {
	sess *Session
	line string
}

type disconnectEvent struct{ sess *Session }

// Server accepts TCP connections and routes their commands through the
// session state machine into the executor.
type Server struct {
	addr      string
	exec      *Executor
	cache     *service.PriceCache
	persister *storage.Persister
	logger    *slog.Logger

	inbox    chan event
	sessions map[uint64]*Session
	nextID   uint64

	listener net.Listener
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a server listening on addr once Run is called.
func New(addr string, exec *Executor, cache *service.PriceCache, persister *storage.Persister) *Server {
	return &Server{
		addr:      addr,
		exec:      exec,
		cache:     cache,
		persister: persister,
		logger:    slog.Default().With("module", "server"),
		inbox:     make(chan event, inboxSize),
		sessions:  make(map[uint64]*Session),
		done:      make(chan struct{}),
	}
}

// Listen binds the TCP listener. Called implicitly by Run when not called
// before; calling it first lets the caller read Addr.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound listen address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens, accepts and dispatches until the context is cancelled. It
// returns after the dispatcher has drained and every session is closed.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("Server listening", slog.String("addr", s.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	s.dispatchLoop(ctx)

	s.listener.Close()
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	// Unblock Accept when the context ends
	stop := context.AfterFunc(ctx, func() { s.listener.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Accept failed", slog.Any("error", err))
			continue
		}

		s.nextID++
		sess := newSession(s.nextID, conn)
		go sess.writeLoop()

		s.post(connectEvent{sess: sess})

		s.wg.Add(1)
		go s.readLoop(sess)
	}
}

// readLoop decodes one command line at a time and posts it to the
// dispatcher. It never touches session or ledger state itself.
func (s *Server) readLoop(sess *Session) {
	defer s.wg.Done()

	scanner := bufio.NewScanner(sess.conn)
	scanner.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)

	for scanner.Scan() {
		s.post(lineEvent{sess: sess, line: scanner.Text()})
	}
	// EOF, oversized line or a closed connection all end the session
	s.post(disconnectEvent{sess: sess})
}

// post hands an event to the dispatcher, giving up once it has stopped.
func (s *Server) post(ev event) {
	select {
	case s.inbox <- ev:
	case <-s.done:
	}
}

// dispatchLoop is the single goroutine that owns sessions, accounts and
// wallets. Everything stateful happens here, so none of it needs locks.
func (s *Server) dispatchLoop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Dispatcher stopping", slog.Int("sessions", len(s.sessions)))
			for _, sess := range s.sessions {
				s.closeSession(sess)
			}
			return
		case ev := <-s.inbox:
			switch e := ev.(type) {
			case connectEvent:
				s.sessions[e.sess.id] = e.sess
				infra.GlobalMetrics.IncrementConnections()
				s.logger.Info("Client connected", slog.String("remote", e.sess.remote))
			case disconnectEvent:
				if _, live := s.sessions[e.sess.id]; live {
					s.closeSession(e.sess)
				}
			case lineEvent:
				if _, live := s.sessions[e.sess.id]; live {
					s.handleLine(e.sess, e.line)
				}
			}
		}
	}
}

// handleLine runs the session state machine for one decoded line.
func (s *Server) handleLine(sess *Session, line string) {
	infra.GlobalMetrics.RecordCommand()

	cmd, err := protocol.Parse(line)
	if err != nil {
		infra.GlobalMetrics.RecordProtocolError()
		sess.send(err.Error())
		return
	}

	if !sess.authenticated() {
		s.handleUnauthenticated(sess, cmd)
		return
	}
	s.handleAuthenticated(sess, cmd)
}

func (s *Server) handleUnauthenticated(sess *Session, cmd protocol.Command) {
	switch {
	case cmd.Type == protocol.Exit:
		s.closeSession(sess)
	case cmd.Type == protocol.Help:
		// Answered locally, no directory or ledger involved
		sess.send(helpText)
	case cmd.IsEntry():
		account, err := s.exec.Authorize(cmd)
		if err != nil {
			sess.send(err.Error())
			return
		}
		account.MarkLoggedIn()
		sess.account = account
		sess.send("Successfully logged in!")
		if cmd.Type == protocol.Register {
			s.persist(account)
		}
		s.logger.Info("Session authenticated",
			slog.String("remote", sess.remote), slog.String("username", account.Username))
	default:
		sess.send("You must login/register first!")
	}
}

func (s *Server) handleAuthenticated(sess *Session, cmd protocol.Command) {
	switch cmd.Type {
	case protocol.Exit:
		s.closeSession(sess)
	case protocol.Login, protocol.Register:
		// Re-entry is rejected
		sess.send("Cannot execute that operation!")
	default:
		out, mutated := s.exec.Execute(cmd, sess.account.Wallet, s.cache.Snapshot())
		sess.send(out)
		if mutated {
			s.persist(sess.account)
		}
	}
}

// persist snapshots the account on the dispatcher goroutine and hands the
// write to the background persister. Must not be skipped after a mutation.
func (s *Server) persist(account *domain.Account) {
	rec, err := storage.RecordFor(account)
	if err != nil {
		infra.GlobalMetrics.RecordPersistError()
		s.logger.Error("Failed to snapshot account for persistence",
			slog.String("username", account.Username), slog.Any("error", err))
		return
	}
	s.persister.Enqueue(rec)
}

// closeSession releases the logged-in flag, closes the connection and stops
// the writer goroutine. A disconnect without an explicit exit releases the
// account the same way, so a dropped connection never locks an account out.
func (s *Server) closeSession(sess *Session) {
	if sess.account != nil {
		sess.account.MarkLoggedOut()
		sess.account = nil
	}
	delete(s.sessions, sess.id)
	close(sess.outbox)
	sess.conn.Close()
	infra.GlobalMetrics.DecrementConnections()
	s.logger.Info("Client disconnected", slog.String("remote", sess.remote))
}
