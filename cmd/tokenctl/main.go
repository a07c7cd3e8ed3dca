package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/authn"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: tokenctl <issue|verify> [args]")
	}

	switch os.Args[1] {
	case "issue":
		issue(os.Args[2:])
	case "verify":
		verify(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

func issue(args []string) {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var user, role, employee string
	var ttl time.Duration
	fs.StringVar(&user, "user", "", "user id (token subject)")
	fs.StringVar(&role, "role", "employee", "caller role")
	fs.StringVar(&employee, "employee", "", "employee record id of the caller")
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if user == "" {
		fatalf("missing --user")
	}

	v, err := authn.NewVerifierFromEnv()
	if err != nil {
		fatal(err)
	}
	token, err := v.Issue(authn.Session{UserID: user, Role: role, EmployeeID: employee}, ttl)
	if err != nil {
		fatal(err)
	}
	fmt.Println(token)
}

// verify reads the token from --token or stdin.
func verify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var token string
	fs.StringVar(&token, "token", "", "token to verify (default: stdin)")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if token == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		token = string(b)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		fatalf("missing token")
	}

	v, err := authn.NewVerifierFromEnv()
	if err != nil {
		fatal(err)
	}
	s, err := v.Verify(token)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("user=%s role=%s employee=%s\n", s.UserID, s.Role, s.EmployeeID)
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
