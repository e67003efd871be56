// Package funz implements the remote-daemon calculator backend: a raw
// net.TCP/net.UDP wire protocol, line-oriented and small enough that a
// framework would fight it rather than help.
package funz

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/pkg/cerr"
)

type Backend struct {
	uri            string
	broadcastAddr  string // host:port the daemon advertises itself on over UDP
	discoverWindow time.Duration
	code           string // model name the daemon must support
	command        string
}

func New(uri, broadcastAddr, code, command string) *Backend {
	return &Backend{
		uri:            uri,
		broadcastAddr:  broadcastAddr,
		discoverWindow: 5 * time.Second,
		code:           code,
		command:        command,
	}
}

func (b *Backend) URI() string { return b.uri }

// announcement is the UDP broadcast's three-part payload: protocol version,
// TCP port, and the list of model names ("codes") the daemon currently
// supports.
type announcement struct {
	version string
	port    string
	codes   []string
}

func (b *Backend) discover(ctx context.Context) (*announcement, error) {
	addr, err := net.ResolveUDPAddr("udp", b.broadcastAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	deadline := time.Now().Add(b.discoverWindow)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetReadDeadline(deadline)

	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "discover funz daemon via udp broadcast", err)
		}
		lines := strings.Split(strings.TrimRight(string(buf[:n]), "\n"), "\n")
		if len(lines) < 2 {
			continue
		}
		an := &announcement{version: lines[0], port: lines[1], codes: lines[2:]}
		if b.code == "" || containsCode(an.codes, b.code) {
			return an, nil
		}
	}
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// session wraps the TCP connection's line protocol: every request ends with
// a lone "/" line, every reply begins with a one-byte response code.
type session struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialDaemon(ctx context.Context, host, port string) (*session, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	return &session{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (s *session) close() error { return s.conn.Close() }

func (s *session) send(lines ...string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("/\n")
	_, err := io.WriteString(s.conn, b.String())
	return err
}

// readLine reads one line, stripping the trailing newline.
func (s *session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readReply reads the response code line and, while it is "H" (heartbeat),
// keeps reading until a terminal code arrives.
func (s *session) readReply() (code string, body []string, err error) {
	for {
		line, err := s.readLine()
		if err != nil {
			return "", nil, err
		}
		switch line {
		case "H":
			continue
		default:
			return line, nil, nil
		}
	}
}

func (s *session) readLines(n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := s.readLine()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (b *Backend) Run(ctx context.Context, caseDir, command string, timeout time.Duration) (*calculator.CaseOutcome, error) {
	if command == "" {
		command = b.command
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	an, err := b.discover(runCtx)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(b.broadcastAddr)

	sess, err := dialDaemon(runCtx, host, an.port)
	if err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "connect to funz daemon", err)
	}
	defer sess.close()

	secret, name, err := b.reserve(sess)
	if err != nil {
		return nil, err
	}
	defer b.unreserve(sess, secret)

	caseName := filepath.Base(caseDir)
	vars, err := readCaseVars(caseDir)
	if err != nil {
		return nil, err
	}
	remoteDir, err := b.newCase(sess, secret, caseName, vars)
	if err != nil {
		return nil, err
	}
	_ = name
	_ = remoteDir

	if err := b.putFiles(sess, secret, caseDir); err != nil {
		return nil, err
	}

	exitCode, execErr := b.execute(runCtx, sess, secret)

	if err := b.archive(sess, secret, caseDir); err != nil && execErr == nil {
		return nil, err
	}

	outcome := &calculator.CaseOutcome{
		ExitStatus: exitCode,
		StdoutPath: caseDir + "/out.txt",
		StderrPath: caseDir + "/err.txt",
		LogPath:    caseDir + "/log.txt",
		Command:    command,
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		outcome.Status = calculator.StatusFailed
		outcome.Error = cerr.New(cerr.KindTimeout, cerr.DeadlineExceeded, fmt.Sprintf("case exceeded timeout %s", timeout), nil)
		return outcome, outcome.Error
	case ctx.Err() == context.Canceled:
		outcome.Status = calculator.StatusInterrupted
		outcome.Error = cerr.New(cerr.KindCancellation, cerr.Canceled, "shutdown observed during daemon execution", nil)
		return outcome, outcome.Error
	case execErr != nil:
		outcome.Status = calculator.StatusFailed
		outcome.Error = cerr.New(cerr.KindExec, cerr.FailedPrecondition, fmt.Sprintf("daemon execution exited %d", exitCode), execErr)
		return outcome, outcome.Error
	default:
		outcome.Status = calculator.StatusDone
		return outcome, nil
	}
}

func (b *Backend) reserve(s *session) (secret, name string, err error) {
	if err := s.send("RESERVE", b.code); err != nil {
		return "", "", err
	}
	code, _, err := s.readReply()
	if err != nil {
		return "", "", err
	}
	if code != "Y" {
		msg, _ := s.readLine()
		return "", "", cerr.New(cerr.KindTransport, cerr.Unavailable, fmt.Sprintf("daemon refused reservation: %s %s", code, msg), nil)
	}
	lines, err := s.readLines(2)
	if err != nil {
		return "", "", err
	}
	return lines[0], lines[1], nil
}

func (b *Backend) unreserve(s *session, secret string) {
	_ = s.send("UNRESERVE", secret)
	_, _, _ = s.readReply()
}

func (b *Backend) newCase(s *session, secret, caseName string, vars map[string]string) (string, error) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"NEWCASE", secret, caseName, strconv.Itoa(len(keys))}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	if err := s.send(lines...); err != nil {
		return "", err
	}
	code, _, err := s.readReply()
	if err != nil {
		return "", err
	}
	if code != "Y" {
		msg, _ := s.readLine()
		return "", cerr.New(cerr.KindTransport, cerr.Unavailable, fmt.Sprintf("daemon refused case creation: %s %s", code, msg), nil)
	}
	return s.readLine()
}

func (b *Backend) putFiles(s *session, secret, caseDir string) error {
	entries, err := os.ReadDir(caseDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(caseDir, e.Name()))
		if err != nil {
			return err
		}
		if err := s.send("PUTFILE", secret, e.Name(), strconv.Itoa(len(data)), string(data)); err != nil {
			return err
		}
		code, _, err := s.readReply()
		if err != nil {
			return err
		}
		if code != "Y" {
			msg, _ := s.readLine()
			return cerr.New(cerr.KindTransport, cerr.Unavailable, fmt.Sprintf("daemon refused file %s: %s %s", e.Name(), code, msg), nil)
		}
	}
	return nil
}

func (b *Backend) execute(ctx context.Context, s *session, secret string) (int, error) {
	if err := s.send("EXECUTE", secret); err != nil {
		return -1, err
	}

	done := make(chan error, 1)
	go func() {
		code, _, err := s.readReply()
		if err != nil {
			done <- err
			return
		}
		if code != "Y" {
			msg, _ := s.readLine()
			done <- cerr.New(cerr.KindExec, cerr.FailedPrecondition, fmt.Sprintf("daemon execution failed: %s %s", code, msg), nil)
			return
		}
		if _, err := s.readLine(); err != nil { // summary line
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		_ = s.close()
		return -1, ctx.Err()
	case err := <-done:
		if err != nil {
			return -1, err
		}
		return 0, nil
	}
}

func (b *Backend) archive(s *session, secret, caseDir string) error {
	if err := s.send("ARCHIVE", secret); err != nil {
		return err
	}
	code, _, err := s.readReply()
	if err != nil {
		return err
	}
	if code != "Y" {
		msg, _ := s.readLine()
		return cerr.New(cerr.KindTransport, cerr.Unavailable, fmt.Sprintf("daemon refused archive: %s %s", code, msg), nil)
	}
	sizeLine, err := s.readLine()
	if err != nil {
		return err
	}
	size, err := strconv.Atoi(sizeLine)
	if err != nil {
		return err
	}
	zipBytes := make([]byte, size)
	if _, err := io.ReadFull(s.r, zipBytes); err != nil {
		return err
	}
	return unzipInto(zipBytes, caseDir)
}

func unzipInto(data []byte, destDir string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, f := range r.File {
		dest := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(dest)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// readCaseVars recovers the case's name=value variables from its directory
// name ("<k1>=<v1>,<k2>=<v2>,..."), the same canonical form the case factory
// produces.
func readCaseVars(caseDir string) (map[string]string, error) {
	base := filepath.Base(caseDir)
	vars := map[string]string{}
	if base == "" || !strings.Contains(base, "=") {
		return vars, nil
	}
	for _, pair := range strings.Split(base, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		vars[k] = v
	}
	return vars, nil
}
