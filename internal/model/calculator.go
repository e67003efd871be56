package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fz-run/fz/pkg/cerr"
)

// Scheme identifies a calculator backend.
type Scheme string

const (
	SchemeSh    Scheme = "sh"
	SchemeSSH   Scheme = "ssh"
	SchemeSlurm Scheme = "slurm"
	SchemeFunz  Scheme = "funz"
	SchemeCache Scheme = "cache"
)

// CalculatorURI is a parsed calculator descriptor: `scheme://[user[:pass]@]
// host[:port][:partition]/command-and-args[?timeout=N]`.
type CalculatorURI struct {
	Raw       string
	Scheme    Scheme
	User      string
	Password  string
	Host      string
	Port      string
	Partition string
	Command   string
	Timeout   time.Duration
}

// ParseCalculatorURI parses and validates a calculator URI. Unknown schemes
// and grammar violations are ConfigErrors, fatal before dispatch.
func ParseCalculatorURI(raw string) (*CalculatorURI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("calculator URI %q missing scheme", raw), nil)
	}

	cu := &CalculatorURI{Raw: raw, Scheme: Scheme(scheme)}
	switch cu.Scheme {
	case SchemeSh, SchemeSSH, SchemeSlurm, SchemeFunz, SchemeCache:
	default:
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("unknown calculator scheme %q", scheme), nil)
	}

	authority := rest
	command := ""
	if idx := strings.Index(rest, "/"); idx >= 0 {
		authority = rest[:idx]
		command = rest[idx+1:]
	}

	if q := strings.Index(command, "?timeout="); q >= 0 {
		tail := command[q+len("?timeout="):]
		command = command[:q]
		secs, err := strconv.Atoi(tail)
		if err != nil {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("bad timeout override in %q", raw), err)
		}
		cu.Timeout = time.Duration(secs) * time.Second
	}
	cu.Command = command

	if authority != "" {
		if at := strings.LastIndex(authority, "@"); at >= 0 {
			userinfo := authority[:at]
			authority = authority[at+1:]
			if colon := strings.Index(userinfo, ":"); colon >= 0 {
				cu.User = userinfo[:colon]
				pw, err := url.QueryUnescape(userinfo[colon+1:])
				if err != nil {
					return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("bad password encoding in %q", raw), err)
				}
				cu.Password = pw
			} else {
				cu.User = userinfo
			}
		}

		// host[:port][:partition] — for slurm, a trailing `:partition` is
		// conventionally present even with no host (":partition/cmd").
		parts := strings.Split(authority, ":")
		switch {
		case cu.Scheme == SchemeSlurm && len(parts) >= 1 && parts[0] == "":
			// ":partition" or ":partition" alone (local submission).
			if len(parts) < 2 {
				return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("slurm URI %q missing partition", raw), nil)
			}
			cu.Partition = parts[1]
		case cu.Scheme == SchemeSlurm && len(parts) == 3:
			cu.Host, cu.Port, cu.Partition = parts[0], parts[1], parts[2]
		case cu.Scheme == SchemeSlurm && len(parts) == 2:
			cu.Host, cu.Partition = parts[0], parts[1]
		case len(parts) == 2:
			cu.Host, cu.Port = parts[0], parts[1]
		case len(parts) == 1:
			cu.Host = parts[0]
		default:
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("malformed host part in %q", raw), nil)
		}
	}

	if cu.Scheme == SchemeSlurm && cu.Partition == "" {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("slurm URI %q requires a partition", raw), nil)
	}
	if (cu.Scheme == SchemeSh || cu.Scheme == SchemeCache) && cu.Command == "" {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("calculator URI %q missing command/glob", raw), nil)
	}

	return cu, nil
}

// String reconstructs the canonical URI form (used by `list --check`'s diff
// against a persisted alias descriptor).
func (cu *CalculatorURI) String() string {
	var b strings.Builder
	b.WriteString(string(cu.Scheme))
	b.WriteString("://")
	if cu.User != "" {
		b.WriteString(cu.User)
		if cu.Password != "" {
			b.WriteByte(':')
			b.WriteString(url.QueryEscape(cu.Password))
		}
		b.WriteByte('@')
	}
	if cu.Host != "" {
		b.WriteString(cu.Host)
		if cu.Port != "" {
			b.WriteByte(':')
			b.WriteString(cu.Port)
		}
	}
	if cu.Partition != "" {
		b.WriteByte(':')
		b.WriteString(cu.Partition)
	}
	b.WriteByte('/')
	b.WriteString(cu.Command)
	if cu.Timeout > 0 {
		fmt.Fprintf(&b, "?timeout=%d", int(cu.Timeout.Seconds()))
	}
	return b.String()
}
