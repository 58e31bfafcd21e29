package keys

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/medubelko/snapcraft/pkg/runner"
	"github.com/medubelko/snapcraft/pkg/source"
)

type fakeRunner struct {
	calls   [][]string
	inputs  [][]byte
	respond func(name string, args []string) (runner.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (runner.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.inputs = append(f.inputs, nil)
	if f.respond != nil {
		return f.respond(name, args)
	}
	return runner.Result{}, nil
}

func (f *fakeRunner) RunInput(ctx context.Context, input []byte, name string, args ...string) (runner.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.inputs = append(f.inputs, input)
	if f.respond != nil {
		return f.respond(name, args)
	}
	return runner.Result{}, nil
}

func TestList(t *testing.T) {
	tests := map[string]struct {
		stdout string
		want   []Key
	}{
		"two keys": {
			stdout: `[{"name":"default","sha3-384":"abc"},{"name":"release","sha3-384":"def"}]`,
			want: []Key{
				{Name: "default", SHA3384: "abc"},
				{Name: "release", SHA3384: "def"},
			},
		},
		"no keys": {
			stdout: "null\n",
			want:   nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{
				respond: func(name string, args []string) (runner.Result, error) {
					return runner.Result{Stdout: tc.stdout}, nil
				},
			}

			got, err := List(context.Background(), run)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("List() = %+v, want %+v", got, tc.want)
			}

			wantCall := []string{"snap", "keys", "--json"}
			if !reflect.DeepEqual(run.calls[0], wantCall) {
				t.Errorf("call = %v, want %v", run.calls[0], wantCall)
			}
		})
	}
}

func TestGet(t *testing.T) {
	keysJSON := `[{"name":"default","sha3-384":"abc"},{"name":"release","sha3-384":"def"}]`

	tests := map[string]struct {
		stdout  string
		name    string
		want    Key
		wantErr bool
	}{
		"named key": {
			stdout: keysJSON,
			name:   "release",
			want:   Key{Name: "release", SHA3384: "def"},
		},
		"empty name picks first": {
			stdout: keysJSON,
			name:   "",
			want:   Key{Name: "default", SHA3384: "abc"},
		},
		"missing key": {
			stdout:  keysJSON,
			name:    "ghost",
			wantErr: true,
		},
		"no keys at all": {
			stdout:  "null",
			name:    "",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{
				respond: func(name string, args []string) (runner.Result, error) {
					return runner.Result{Stdout: tc.stdout}, nil
				},
			}

			got, err := Get(context.Background(), run, tc.name)
			if tc.wantErr {
				var nfe *NotFoundError
				if !errors.As(err, &nfe) {
					t.Fatalf("expected *NotFoundError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Get() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSignAssertion(t *testing.T) {
	run := &fakeRunner{
		respond: func(name string, args []string) (runner.Result, error) {
			return runner.Result{Stdout: "signed-assertion-text"}, nil
		},
	}

	payload := []byte(`{"type":"validation"}`)
	got, err := SignAssertion(context.Background(), run, payload, "release")
	if err != nil {
		t.Fatalf("SignAssertion() error: %v", err)
	}
	if string(got) != "signed-assertion-text" {
		t.Errorf("SignAssertion() = %q", got)
	}

	wantCall := []string{"snap", "sign", "-k", "release"}
	if !reflect.DeepEqual(run.calls[0], wantCall) {
		t.Errorf("call = %v, want %v", run.calls[0], wantCall)
	}
	if string(run.inputs[0]) != string(payload) {
		t.Errorf("stdin = %q, want %q", run.inputs[0], payload)
	}
}

func TestSignBuild(t *testing.T) {
	run := &fakeRunner{
		respond: func(name string, args []string) (runner.Result, error) {
			return runner.Result{Stdout: "snap-build-assertion"}, nil
		},
	}

	got, err := SignBuild(context.Background(), run, "acct-1", "snap-id-1", "stable", "default", "hello_1.0_amd64.snap")
	if err != nil {
		t.Fatalf("SignBuild() error: %v", err)
	}
	if string(got) != "snap-build-assertion" {
		t.Errorf("SignBuild() = %q", got)
	}

	wantCall := []string{
		"snap", "sign-build",
		"--developer-id=acct-1",
		"--snap-id=snap-id-1",
		"--grade=stable",
		"-k", "default",
		"hello_1.0_amd64.snap",
	}
	if !reflect.DeepEqual(run.calls[0], wantCall) {
		t.Errorf("call = %v, want %v", run.calls[0], wantCall)
	}
}

func TestSignBuildFailure(t *testing.T) {
	run := &fakeRunner{
		respond: func(name string, args []string) (runner.Result, error) {
			return runner.Result{ExitCode: 1, Stderr: "cannot sign"}, nil
		},
	}

	_, err := SignBuild(context.Background(), run, "acct-1", "snap-id-1", "stable", "", "hello.snap")
	var cmdErr *source.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *source.CommandError, got %v", err)
	}
	if cmdErr.ExitCode != 1 || cmdErr.Output != "cannot sign" {
		t.Errorf("got %+v", cmdErr)
	}
}

func TestExport(t *testing.T) {
	run := &fakeRunner{
		respond: func(name string, args []string) (runner.Result, error) {
			return runner.Result{Stdout: "account-key-request"}, nil
		},
	}

	got, err := Export(context.Background(), run, "default", "acct-1")
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if string(got) != "account-key-request" {
		t.Errorf("Export() = %q", got)
	}

	wantCall := []string{"snap", "export-key", "--account=acct-1", "default"}
	if !reflect.DeepEqual(run.calls[0], wantCall) {
		t.Errorf("call = %v, want %v", run.calls[0], wantCall)
	}
}

func TestParseValidations(t *testing.T) {
	tests := map[string]struct {
		args    []string
		want    []ValidationRequest
		wantErr bool
	}{
		"valid refs": {
			args: []string{"gated-a=3", "gated-b=17"},
			want: []ValidationRequest{
				{GatedSnap: "gated-a", Revision: "3"},
				{GatedSnap: "gated-b", Revision: "17"},
			},
		},
		"missing revision": {
			args:    []string{"gated-a"},
			wantErr: true,
		},
		"non-numeric revision": {
			args:    []string{"gated-a=latest"},
			wantErr: true,
		},
		"empty name": {
			args:    []string{"=3"},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseValidations(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValidations() error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseValidations() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestValidationPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := ValidationPayload("acct-1", "16", "snap-id-1", "approved-id", "3", "", false, now)
	if err != nil {
		t.Fatalf("ValidationPayload() error: %v", err)
	}

	want := `{"approved-snap-id":"approved-id","approved-snap-revision":"3","authority-id":"acct-1","revoked":"false","series":"16","snap-id":"snap-id-1","timestamp":"2024-05-01T12:00:00Z","type":"validation"}`
	if string(got) != want {
		t.Errorf("payload = %s, want %s", got, want)
	}

	revoked, err := ValidationPayload("acct-1", "16", "snap-id-1", "approved-id", "3", "", true, now)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(revoked), `"revoked":"true"`) {
		t.Errorf("revoked payload = %s", revoked)
	}

	superseding, err := ValidationPayload("acct-1", "16", "snap-id-1", "approved-id", "3", "2", false, now)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(superseding), `"revision":"2"`) {
		t.Errorf("superseding payload = %s", superseding)
	}
}

func TestIsSnapInstalled(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"installed": {
			err:  nil,
			want: true,
		},
		"not installed": {
			err:  &exec.Error{Name: "snap", Err: exec.ErrNotFound},
			want: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{
				respond: func(name string, args []string) (runner.Result, error) {
					return runner.Result{}, tc.err
				},
			}
			if got := IsSnapInstalled(context.Background(), run); got != tc.want {
				t.Errorf("IsSnapInstalled() = %v, want %v", got, tc.want)
			}
		})
	}
}
