package source

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRepoInit(t *testing.T) {
	run := &fakeRunner{}
	r := NewRepo("/work/repo", run)
	if err := r.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	want := [][]string{{"git", "-C", "/work/repo", "init"}}
	if !reflect.DeepEqual(run.calls, want) {
		t.Errorf("calls = %v, want %v", run.calls, want)
	}
}

func TestRepoAdd(t *testing.T) {
	tests := map[string]struct {
		file string
		want string
	}{
		"path under repo becomes relative": {
			file: filepath.Join("/work/repo", "snaps", "foo.assertion"),
			want: filepath.Join("snaps", "foo.assertion"),
		},
		"path outside repo is kept": {
			file: "/elsewhere/foo.assertion",
			want: "/elsewhere/foo.assertion",
		},
		"relative path is kept": {
			file: "foo.assertion",
			want: "foo.assertion",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{}
			r := NewRepo("/work/repo", run)
			if err := r.Add(context.Background(), tc.file); err != nil {
				t.Fatalf("Add() error = %v", err)
			}

			want := [][]string{{"git", "-C", "/work/repo", "add", tc.want}}
			if !reflect.DeepEqual(run.calls, want) {
				t.Errorf("calls = %v, want %v", run.calls, want)
			}
		})
	}
}

func TestRepoCommit(t *testing.T) {
	tests := map[string]struct {
		author     string
		wantAuthor string
	}{
		"explicit author": {
			author:     "Jo Developer <jo@example.com>",
			wantAuthor: "Jo Developer <jo@example.com>",
		},
		"default author": {
			author:     "",
			wantAuthor: "snapcraft <snapcraft@localhost>",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{}
			r := NewRepo("/work/repo", run)
			if err := r.Commit(context.Background(), "add assertion", tc.author); err != nil {
				t.Fatalf("Commit() error = %v", err)
			}

			want := [][]string{{
				"git", "-C", "/work/repo", "commit", "--no-gpg-sign",
				"--message", "add assertion", "--author", tc.wantAuthor,
			}}
			if !reflect.DeepEqual(run.calls, want) {
				t.Errorf("calls = %v, want %v", run.calls, want)
			}
		})
	}
}

func TestRepoPush(t *testing.T) {
	tests := map[string]struct {
		force bool
		want  []string
	}{
		"plain": {
			want: []string{"git", "-C", "/work/repo", "push", "https://host/repo.git", "refs/heads/main"},
		},
		"forced": {
			force: true,
			want:  []string{"git", "-C", "/work/repo", "push", "https://host/repo.git", "refs/heads/main", "--force"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			run := &fakeRunner{}
			r := NewRepo("/work/repo", run)
			err := r.Push(context.Background(), "https://host/repo.git", "refs/heads/main", tc.force)
			if err != nil {
				t.Fatalf("Push() error = %v", err)
			}

			if !reflect.DeepEqual(run.calls, [][]string{tc.want}) {
				t.Errorf("calls = %v, want %v", run.calls, [][]string{tc.want})
			}
		})
	}
}
