package source

import (
	"testing"
)

func TestInferType(t *testing.T) {
	tests := map[string]struct {
		uri  string
		want string
	}{
		"https git":       {uri: "https://github.com/canonical/pebble.git", want: "git"},
		"git protocol":    {uri: "git://host/repo", want: "git"},
		"ssh shorthand":   {uri: "git@github.com:canonical/pebble.git", want: "git"},
		"tarball":         {uri: "https://host/release-1.0.tar.gz", want: "tar"},
		"plain tar":       {uri: "https://host/release.tar", want: "tar"},
		"tgz":             {uri: "https://host/release.tgz", want: "tar"},
		"relative path":   {uri: "./src", want: "local"},
		"parent path":     {uri: "../src", want: "local"},
		"absolute path":   {uri: "/home/user/src", want: "local"},
		"bare directory":  {uri: "src", want: "local"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := inferType(tc.uri); got != tc.want {
				t.Errorf("inferType(%q) = %q, want %q", tc.uri, got, tc.want)
			}
		})
	}
}

func TestNewDispatch(t *testing.T) {
	tests := map[string]struct {
		typ      string
		spec     Spec
		wantType any
		wantErr  bool
	}{
		"explicit git": {
			typ:      "git",
			spec:     Spec{Source: "https://host/repo"},
			wantType: &Git{},
		},
		"inferred git": {
			spec:     Spec{Source: "https://host/repo.git"},
			wantType: &Git{},
		},
		"explicit tar": {
			typ:      "tar",
			spec:     Spec{Source: "https://host/release.bin"},
			wantType: &Tar{},
		},
		"inferred tar": {
			spec:     Spec{Source: "https://host/release.tar.gz"},
			wantType: &Tar{},
		},
		"inferred local": {
			spec:     Spec{Source: "./src"},
			wantType: &Local{},
		},
		"unknown type": {
			typ:     "bzr",
			spec:    Spec{Source: "lp:something"},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			src, err := New(tc.typ, tc.spec, &fakeRunner{})
			if tc.wantErr {
				if err == nil {
					t.Fatal("New() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			switch tc.wantType.(type) {
			case *Git:
				if _, ok := src.(*Git); !ok {
					t.Errorf("New() = %T, want *Git", src)
				}
			case *Tar:
				if _, ok := src.(*Tar); !ok {
					t.Errorf("New() = %T, want *Tar", src)
				}
			case *Local:
				if _, ok := src.(*Local); !ok {
					t.Errorf("New() = %T, want *Local", src)
				}
			}
		})
	}
}
