// Package smtptest provides an in-process SMTP server that records the
// messages submitted to it, for use in transport tests.
package smtptest

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
)

// Message is one accepted mail transaction.
type Message struct {
	From string
	To   []string
	Data []byte
	TLS  bool // the transaction ran over an encrypted connection
}

// Config holds the behaviour of a test server.
type Config struct {
	// Username and Password enable AUTH PLAIN/LOGIN when both are set.
	Username string
	Password string

	// RejectData, when set, is written instead of the 250 reply after DATA,
	// e.g. "554 5.7.1 Message rejected".
	RejectData string

	// TLS selects implicit TLS, STARTTLS or plain SMTP.
	TLS TLSMode
}

// Server accepts SMTP connections on a loopback port.
type Server struct {
	cfg       Config
	auth      *authenticator
	listener  net.Listener
	tlsConfig *tls.Config
	roots     *x509.CertPool

	mu       sync.Mutex
	messages []Message

	wg sync.WaitGroup
}

// NewServer starts a server listening on 127.0.0.1 with a random port.
// A self-signed certificate is generated when cfg.TLS is not TLSNone.
func NewServer(cfg Config) (*Server, error) {
	s := &Server{
		cfg:  cfg,
		auth: &authenticator{username: cfg.Username, password: cfg.Password},
	}

	if cfg.TLS != TLSNone {
		tlsCfg, roots, err := newServerTLS()
		if err != nil {
			return nil, err
		}
		s.tlsConfig, s.roots = tlsCfg, roots
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	if cfg.TLS == TLSImplicit {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.serve()

	return s, nil
}

// Host returns the listening IP address.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// RootCAs returns a pool trusting the server certificate, or nil without TLS.
func (s *Server) RootCAs() *x509.CertPool {
	return s.roots
}

// Messages returns a copy of the accepted messages in arrival order.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close stops accepting connections and waits for open sessions to end.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Error("accept error", "error", err)
			}
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			newSession(conn, s).handle()
		}()
	}
}

func (s *Server) record(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}
