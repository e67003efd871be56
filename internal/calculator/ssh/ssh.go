// Package ssh implements the remote-shell calculator backend: key-based
// auth first, password second, transient remote directory, SFTP up/down,
// remote command execution.
package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/calculator/execlog"
	"github.com/fz-run/fz/pkg/cerr"
)

type Backend struct {
	uri             string
	user, host      string
	port            string
	password        string
	autoAcceptHostK bool
	command         string
}

type Option func(*Backend)

func WithAutoAcceptHostKey(v bool) Option {
	return func(b *Backend) { b.autoAcceptHostK = v }
}

func New(uri, user, host, port, password, command string, opts ...Option) *Backend {
	b := &Backend{uri: uri, user: user, host: host, port: port, password: password, command: command}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) URI() string { return b.uri }

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

	client, err := b.dial(runCtx)
	if err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, fmt.Sprintf("connect to %s@%s", b.user, b.host), err)
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "open sftp session", err)
	}
	defer sftpClient.Close()

	remoteDir := path.Join("/tmp", fmt.Sprintf("fz-%d", time.Now().UnixNano()))
	if err := sftpClient.MkdirAll(remoteDir); err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "create remote directory", err)
	}
	defer func() {
		// Remove the whole remote tree, deepest entries first: SFTP rmdir
		// only removes empty directories.
		var paths []string
		for w := sftpClient.Walk(remoteDir); w.Step(); {
			if w.Err() == nil {
				paths = append(paths, w.Path())
			}
		}
		for i := len(paths) - 1; i >= 0; i-- {
			_ = sftpClient.Remove(paths[i])
		}
	}()

	if err := uploadDir(runCtx, sftpClient, caseDir, remoteDir); err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "upload case files", err)
	}

	entry := execlog.NewEntry(command, remoteDir, caseDir)
	entry.Host = b.host
	entry.User = b.user
	entry.Start = time.Now()

	exitCode, runErr := b.runRemote(runCtx, client, remoteDir, command)
	entry.End = time.Now()
	entry.ExitCode = exitCode
	if err := entry.Write(caseDir); err != nil {
		return nil, err
	}

	if err := downloadDir(runCtx, sftpClient, remoteDir, caseDir); err != nil {
		return nil, cerr.New(cerr.KindTransport, cerr.Unavailable, "download result files", err)
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
		outcome.Error = cerr.New(cerr.KindCancellation, cerr.Canceled, "shutdown observed during remote execution", nil)
		return outcome, outcome.Error
	case runErr != nil:
		outcome.Status = calculator.StatusFailed
		outcome.Error = cerr.New(cerr.KindExec, cerr.FailedPrecondition, fmt.Sprintf("remote command exited %d", exitCode), runErr)
		return outcome, outcome.Error
	default:
		outcome.Status = calculator.StatusDone
		return outcome, nil
	}
}

func (b *Backend) dial(ctx context.Context) (*ssh.Client, error) {
	auths := b.authMethods()
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if !b.autoAcceptHostK {
		if cb, err := knownHostsCallback(); err == nil {
			hostKeyCallback = cb
		}
	}

	cfg := &ssh.ClientConfig{
		User:            b.user,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}

	port := b.port
	if port == "" {
		port = "22"
	}
	addr := net.JoinHostPort(b.host, port)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func (b *Backend) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
		}
	}
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		home, err := os.UserHomeDir()
		if err != nil {
			continue
		}
		key, err := os.ReadFile(path.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	switch {
	case b.password != "":
		methods = append(methods, ssh.Password(b.password))
	case term.IsTerminal(int(os.Stdin.Fd())):
		// Key auth first, interactive password second: the prompt only
		// fires if every public-key method was rejected.
		methods = append(methods, ssh.PasswordCallback(func() (string, error) {
			fmt.Fprintf(os.Stderr, "%s@%s password: ", b.user, b.host)
			p, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			return string(p), err
		}))
	}
	return methods
}

func (b *Backend) runRemote(ctx context.Context, client *ssh.Client, remoteDir, command string) (int, error) {
	session, err := client.NewSession()
	if err != nil {
		return -1, err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(fmt.Sprintf("cd %s && %s", remoteDir, command))
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		_ = session.Close()
		return -1, ctx.Err()
	case err := <-done:
		return exitCodeOf(err), err
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return exitErr.ExitStatus()
	}
	return -1
}

func uploadDir(ctx context.Context, client *sftp.Client, localDir, remoteDir string) error {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return err
	}
	g, _ := errgroup.WithContext(ctx)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		g.Go(func() error {
			return copyToRemote(client, path.Join(localDir, name), path.Join(remoteDir, name))
		})
	}
	return g.Wait()
}

func downloadDir(ctx context.Context, client *sftp.Client, remoteDir, localDir string) error {
	entries, err := client.ReadDir(remoteDir)
	if err != nil {
		return err
	}
	g, _ := errgroup.WithContext(ctx)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		g.Go(func() error {
			return copyFromRemote(client, path.Join(remoteDir, name), path.Join(localDir, name))
		})
	}
	return g.Wait()
}

func copyToRemote(client *sftp.Client, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := client.Create(remotePath)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func copyFromRemote(client *sftp.Client, remotePath, localPath string) error {
	src, err := client.Open(remotePath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
