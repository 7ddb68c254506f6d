package smtptest

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Session states for the SMTP state machine.
const (
	stateConnected = iota
	stateGreeted
	stateAuthOK
	stateMailFrom
	stateRcptTo
)

// idleTimeout bounds how long a session may wait for the next command.
const idleTimeout = 10 * time.Second

// session handles one client connection.
type session struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	server *Server
	state  int

	tlsActive bool

	mailFrom string
	rcptTo   []string
}

func newSession(conn net.Conn, server *Server) *session {
	return &session{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		writer:    bufio.NewWriter(conn),
		server:    server,
		state:     stateConnected,
		tlsActive: server.cfg.TLS == TLSImplicit,
	}
}

// handle processes commands until the client quits or disconnects.
func (s *session) handle() {
	defer s.conn.Close()

	s.writeLine("220 localhost ESMTP smtptest")

	for {
		if err := s.conn.SetDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				slog.Debug("connection read error", "error", err)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		cmd, arg := parseCommand(line)
		if s.handleCommand(cmd, arg) {
			return
		}
	}
}

// handleCommand processes a single command and returns true if the session should end.
func (s *session) handleCommand(cmd, arg string) bool {
	switch cmd {
	case "EHLO", "HELO":
		s.handleEHLO(cmd, arg)
	case "STARTTLS":
		s.handleSTARTTLS()
	case "AUTH":
		s.handleAUTH(arg)
	case "MAIL":
		s.handleMAIL(arg)
	case "RCPT":
		s.handleRCPT(arg)
	case "DATA":
		s.handleDATA()
	case "RSET":
		s.resetTransaction()
		s.writeLine("250 OK")
	case "NOOP":
		s.writeLine("250 OK")
	case "QUIT":
		s.writeLine("221 Bye")
		return true
	default:
		s.writeLine("500 Unrecognized command")
	}
	return false
}

func (s *session) handleEHLO(cmd, arg string) {
	if arg == "" {
		s.writeLine("501 Syntax: %s hostname", cmd)
		return
	}

	s.state = stateGreeted
	if cmd == "HELO" {
		s.writeLine("250 localhost Hello %s", arg)
		return
	}

	s.writeLine("250-localhost Hello %s", arg)
	if s.server.cfg.TLS == TLSStartTLS && !s.tlsActive {
		s.writeLine("250-STARTTLS")
	}
	if s.server.auth.enabled() {
		s.writeLine("250-AUTH PLAIN LOGIN")
	}
	s.writeLine("250 OK")
}

// handleSTARTTLS upgrades the connection to TLS.
func (s *session) handleSTARTTLS() {
	if s.server.cfg.TLS != TLSStartTLS {
		s.writeLine("454 TLS not available")
		return
	}
	if s.tlsActive {
		s.writeLine("454 TLS already active")
		return
	}

	s.writeLine("220 Ready to start TLS")

	tlsConn := tls.Server(s.conn, s.server.tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		slog.Error("TLS handshake failed", "error", err)
		return
	}

	s.conn = tlsConn
	s.reader = bufio.NewReader(tlsConn)
	s.writer = bufio.NewWriter(tlsConn)
	s.tlsActive = true
	s.state = stateConnected
}

func (s *session) handleAUTH(arg string) {
	if s.state < stateGreeted {
		s.writeLine("503 Send EHLO/HELO first")
		return
	}
	if !s.server.auth.enabled() {
		s.writeLine("503 AUTH not available")
		return
	}

	parts := strings.SplitN(arg, " ", 2)
	switch strings.ToUpper(parts[0]) {
	case "PLAIN":
		encoded := ""
		if len(parts) > 1 {
			encoded = parts[1]
		} else {
			s.writeLine("334")
			encoded = s.readResponse()
		}
		s.finishAuth(s.server.auth.verifyPlain(encoded))
	case "LOGIN":
		s.writeLine("334 VXNlcm5hbWU6")
		user := s.readResponse()
		s.writeLine("334 UGFzc3dvcmQ6")
		pass := s.readResponse()
		s.finishAuth(s.server.auth.verifyLogin(user, pass))
	default:
		s.writeLine("504 Unrecognized authentication type")
	}
}

func (s *session) finishAuth(err error) {
	if err != nil {
		s.writeLine("535 Authentication failed")
		return
	}
	s.state = stateAuthOK
	s.writeLine("235 Authentication successful")
}

func (s *session) readResponse() string {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func (s *session) handleMAIL(arg string) {
	if s.server.auth.enabled() && s.state < stateAuthOK {
		s.writeLine("530 Authentication required")
		return
	}
	if s.state < stateGreeted {
		s.writeLine("503 Send EHLO/HELO first")
		return
	}
	if !strings.HasPrefix(strings.ToUpper(arg), "FROM:") {
		s.writeLine("501 Syntax: MAIL FROM:<address>")
		return
	}

	s.mailFrom = extractAddress(arg[5:])
	s.rcptTo = nil
	s.state = stateMailFrom
	s.writeLine("250 OK")
}

func (s *session) handleRCPT(arg string) {
	if s.state < stateMailFrom {
		s.writeLine("503 Send MAIL FROM first")
		return
	}
	if !strings.HasPrefix(strings.ToUpper(arg), "TO:") {
		s.writeLine("501 Syntax: RCPT TO:<address>")
		return
	}

	addr := extractAddress(arg[3:])
	if addr == "" {
		s.writeLine("501 Syntax: RCPT TO:<address>")
		return
	}

	s.rcptTo = append(s.rcptTo, addr)
	s.state = stateRcptTo
	s.writeLine("250 OK")
}

func (s *session) handleDATA() {
	if s.state < stateRcptTo {
		s.writeLine("503 Send RCPT TO first")
		return
	}

	s.writeLine("354 Start mail input; end with <CRLF>.<CRLF>")

	var data strings.Builder
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			slog.Error("error reading DATA", "error", err)
			return
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			break
		}
		if strings.HasPrefix(trimmed, "..") {
			line = line[1:]
		}
		data.WriteString(line)
	}

	if s.server.cfg.RejectData != "" {
		s.writeLine("%s", s.server.cfg.RejectData)
		s.resetTransaction()
		return
	}

	s.server.record(Message{
		From: s.mailFrom,
		To:   s.rcptTo,
		Data: []byte(data.String()),
		TLS:  s.tlsActive,
	})
	s.writeLine("250 OK message queued")
	s.resetTransaction()
}

// resetTransaction clears the envelope without dropping greeting or auth.
func (s *session) resetTransaction() {
	s.mailFrom = ""
	s.rcptTo = nil

	if s.server.auth.enabled() && s.state >= stateAuthOK {
		s.state = stateAuthOK
	} else if s.state >= stateGreeted {
		s.state = stateGreeted
	}
}

func (s *session) writeLine(format string, args ...any) {
	if _, err := s.writer.WriteString(fmt.Sprintf(format, args...) + "\r\n"); err != nil {
		return
	}
	_ = s.writer.Flush()
}

// parseCommand splits a command line into the verb and its argument.
func parseCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}
	return strings.ToUpper(parts[0]), arg
}

// extractAddress extracts an address from a MAIL/RCPT parameter,
// handling both angle-bracket and bare formats.
func extractAddress(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return ""
		}
		return s[1:end]
	}
	if sp := strings.IndexByte(s, ' '); sp >= 0 {
		return s[:sp]
	}
	return s
}
