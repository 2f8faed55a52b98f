package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
	err   error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Me(ctx context.Context) error { f.calls = append(f.calls, "me"); return f.err }
func (f *fakeExec) Users(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "users")
	f.args = args
	return nil
}
func (f *fakeExec) Deactivate(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "deactivate")
	f.args = args
	return nil
}

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrint(t)

	input := rdr(strings.Join([]string{
		"help",
		"login",
		"help",
		"me",
		"users 10 5",
		"deactivate abc",
		"foobar",
		"logout",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}

	runREPL(context.Background(), exec, func() string { return "status" }, input)

	want := []string{"login", "me", "users", "deactivate", "logout"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("commands mismatch: got %v, want %v", exec.calls, want)
	}
	if len(exec.args) != 1 || exec.args[0] != "abc" {
		t.Fatalf("unexpected args: %v", exec.args)
	}
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{loggedIn: true, err: errors.New("not enough permissions")}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("me\nme\nquit\n"))

	if len(exec.calls) != 2 {
		t.Fatalf("expected two calls, got %v", exec.calls)
	}
	found := false
	for _, l := range *lines {
		if strings.Contains(l, "not enough permissions") {
			found = true
		}
	}
	if !found {
		t.Fatalf("error not printed: %v", *lines)
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("register"))

	if len(exec.calls) != 1 || exec.calls[0] != "register" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
