/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"context"
	"strings"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// Option configures a Server (and its embedded Chat hub) during
// NewServer.
type Option func(*Server) error

// WithListenAddr sets the TCP address ListenAndServe binds to.
func WithListenAddr(addr string) Option {
	return func(server *Server) error {
		server.listenAddr = addr
		return nil
	}
}

// WithServerName sets the name the server identifies itself with in
// every reply prefix.
func WithServerName(name string) Option {
	return func(server *Server) error {
		server.chat.SetServerName(name)
		return nil
	}
}

// WithMOTDStart sets the banner prefix of the 375 reply.
func WithMOTDStart(start string) Option {
	return func(server *Server) error {
		server.chat.SetMOTDStart(start)
		return nil
	}
}

// WithMOTD sets the message of the day carried by the 372 reply.
func WithMOTD(motd string) Option {
	return func(server *Server) error {
		server.chat.SetMOTD(motd)
		return nil
	}
}

// WithChannel registers a channel on the hub. May be repeated.
func WithChannel(name, title string) Option {
	return func(server *Server) error {
		if !strings.HasPrefix(name, "#") {
			return ErrBadChannelName
		}
		server.chat.AddChannel(name, title)
		return nil
	}
}

// WithAutoJoin names the channel every session is joined to on
// successful registration. The channel must be registered with
// WithChannel before the server starts.
func WithAutoJoin(name string) Option {
	return func(server *Server) error {
		if !strings.HasPrefix(name, "#") {
			return ErrBadChannelName
		}
		server.chat.SetAutoJoin(name)
		return nil
	}
}

// WithAuthPolicy swaps the registration policy.
func WithAuthPolicy(policy AuthPolicy) Option {
	return func(server *Server) error {
		if policy == nil {
			return ErrNilAuthPolicy
		}
		server.chat.SetAuthPolicy(policy)
		return nil
	}
}

// WithMessageHandler installs the host interpreter for channel
// PRIVMSG traffic.
func WithMessageHandler(handler MessageHandler) Option {
	return func(server *Server) error {
		server.chat.SetMessageHandler(handler)
		return nil
	}
}

// WithLogger replaces the server's logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(server *Server) error {
		if logger == nil {
			return ErrNilLogger
		}
		server.logger = logger
		return nil
	}
}

// WithLogLevel sets the level on the server's logger. Order matters:
// apply after WithLogger.
func WithLogLevel(level logrus.Level) Option {
	return func(server *Server) error {
		server.logger.SetLevel(level)
		return nil
	}
}

// WithDefaultLogFormatter installs the nested-fields text formatter on
// the server's logger. Order matters: apply after WithLogger.
func WithDefaultLogFormatter() Option {
	return func(server *Server) error {
		server.logger.SetFormatter(&nested.Formatter{
			HideKeys:    true,
			FieldsOrder: []string{"component", "remote"},
		})
		return nil
	}
}

// WithGracefulShutdown ties the server's lifetime to the given
// context: when it is cancelled the listener closes, live sessions are
// torn down, and Serve returns ErrServerClosed. The timeout bounds how
// long Shutdown waits for session goroutines to drain.
func WithGracefulShutdown(ctx context.Context, timeout time.Duration) Option {
	return func(server *Server) error {
		if timeout <= 0 {
			return ErrBadDuration
		}
		server.shutdownCtx = ctx
		server.shutdownTimeout = timeout
		return nil
	}
}

// WithRegisterTimeout overrides how long a connection may sit
// unregistered.
func WithRegisterTimeout(timeout time.Duration) Option {
	return func(server *Server) error {
		if timeout <= 0 {
			return ErrBadDuration
		}
		server.chat.registerTimeout = timeout
		return nil
	}
}

// WithPingInterval overrides the idle duration before a liveness
// probe.
func WithPingInterval(interval time.Duration) Option {
	return func(server *Server) error {
		if interval <= 0 {
			return ErrBadDuration
		}
		server.chat.pingInterval = interval
		return nil
	}
}

// WithPingGrace overrides how long the server waits for a PONG after a
// probe.
func WithPingGrace(grace time.Duration) Option {
	return func(server *Server) error {
		if grace <= 0 {
			return ErrBadDuration
		}
		server.chat.pingGrace = grace
		return nil
	}
}
