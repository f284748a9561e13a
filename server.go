/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"context"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// KeepAliveTimeout sets the TCP keep-alive period on accepted client
// connections.
const KeepAliveTimeout time.Duration = 2 * time.Minute

// DefaultShutdownTimeout bounds how long Shutdown waits for live
// session goroutines to drain.
const DefaultShutdownTimeout time.Duration = 30 * time.Second

// Server accepts TCP connections and hands each one to a new Session
// driven against the server's Chat hub.
type Server struct {
	chat       *Chat
	listenAddr string
	logger     *logrus.Logger
	log        *logrus.Entry

	shutdownCtx     context.Context
	shutdownTimeout time.Duration

	sessions SessionMap
	wg       *conc.WaitGroup

	mu         sync.Mutex
	listener   net.Listener
	inShutdown bool
}

// NewServer initializes a Server and its embedded Chat hub from the
// given options. It returns an error for invalid configuration,
// including an auto-join channel that no WithChannel option created.
func NewServer(opts ...Option) (*Server, error) {
	server := &Server{
		chat:            NewChat(),
		logger:          logrus.New(),
		shutdownTimeout: DefaultShutdownTimeout,
		sessions:        NewSessionMap(),
		wg:              conc.NewWaitGroup(),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, err
		}
	}

	server.chat.logger = server.logger
	server.log = server.logger.WithField("component", "server")

	if autoJoin := server.chat.AutoJoin(); autoJoin != EMPTY && !server.chat.HasChannel(autoJoin) {
		return nil, ErrAutoJoinUnknown
	}

	return server, nil
}

// Chat returns the hub so the host application can broadcast to it and
// inspect its channels.
func (server *Server) Chat() *Chat {
	return server.chat
}

// ListenAndServe listens on the configured TCP address and then calls
// Serve to handle the client sessions. Accepted connections are
// configured to enable TCP keep-alives.
//
// If no listen address is configured, ":6667" is used.
//
// ListenAndServe always returns a non-nil error.
func (server *Server) ListenAndServe() error {
	addr := server.listenAddr
	if addr == EMPTY {
		addr = ":6667"
	}

	listen, err := net.Listen("tcp4", addr)
	if err != nil {
		return err
	}

	return server.Serve(tcpKeepAliveListener{listen.(*net.TCPListener)})
}

// Serve accepts connections on the given listener, assigning each to a
// new Session. Temporary accept errors are retried with a capped
// backoff; Serve returns ErrServerClosed after Shutdown.
func (server *Server) Serve(listen net.Listener) error {
	server.mu.Lock()
	if server.inShutdown {
		server.mu.Unlock()
		listen.Close()
		return ErrServerClosed
	}
	if server.listener != nil {
		server.mu.Unlock()
		listen.Close()
		return ErrServerStarted
	}
	server.listener = listen
	server.mu.Unlock()

	if server.shutdownCtx != nil {
		go func() {
			<-server.shutdownCtx.Done()
			server.Shutdown()
		}()
	}

	defer listen.Close()

	server.log.Infof("starting listener at local address [%s]", listen.Addr())

	var tempDelay time.Duration // how long to sleep on accept failure

	for {
		sock, err := listen.Accept()

		if err != nil {
			if server.shuttingDown() {
				return ErrServerClosed
			}

			if neterr, ok := err.(net.Error); ok && neterr.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}

				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}

				server.log.Errorf("error accepting connection: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}

			return err
		}

		tempDelay = 0
		sess := NewSession(server.chat, sock)
		server.wg.Go(func() {
			server.serve(sess)
		})
	}
}

// serve runs one session to completion, isolating panics to the
// connection they occurred on.
func (server *Server) serve(sess *Session) {
	defer sess.Cleanup()

	defer func() {
		if err := recover(); err != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			server.log.Errorf("panic serving %v: %v\n%s", sess.RemoteAddr(), err, buf)
		}
	}()

	addr := sess.sock.RemoteAddr().String()
	server.sessions.Set(addr, sess)
	sess.onCleanup = func(*Session) {
		server.sessions.Delete(addr)
	}

	metricConnectionsAccepted.Inc()

	sess.Start()
	sess.readLoop()
}

// Shutdown stops accepting, tears down every live session, and waits
// up to the shutdown timeout for their goroutines to drain. It is safe
// to call more than once.
func (server *Server) Shutdown() {
	server.mu.Lock()
	if server.inShutdown {
		server.mu.Unlock()
		return
	}
	server.inShutdown = true
	listener := server.listener
	server.mu.Unlock()

	server.log.Info("shutting down")

	if listener != nil {
		listener.Close()
	}

	for _, sess := range server.sessions.Values() {
		sess.Cleanup()
	}

	done := make(chan struct{})
	go func() {
		server.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		server.log.Info("all sessions drained")
	case <-time.After(server.shutdownTimeout):
		server.log.Warn("shutdown timeout lapsed with sessions still draining")
	}
}

func (server *Server) shuttingDown() bool {
	server.mu.Lock()
	defer server.mu.Unlock()

	return server.inShutdown
}

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted
// connections. It's used by ListenAndServe so dead TCP connections
// eventually go away.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (listen tcpKeepAliveListener) Accept() (net.Conn, error) {
	conn, err := listen.AcceptTCP()
	if err != nil {
		return nil, err
	}
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(KeepAliveTimeout)
	return conn, nil
}
