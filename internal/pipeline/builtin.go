package pipeline

import (
	"embed"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// ErrUnknownProfile is returned when a profile name resolves to nothing.
var ErrUnknownProfile = eris.New("unknown profile")

// Builtin returns a fresh copy of a built-in profile.
func Builtin(name string) (*Profile, error) {
	b, err := builtinFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, eris.Wrapf(ErrUnknownProfile, "%q", name)
	}
	return ParseProfile(b)
}

// BuiltinNames lists built-in profiles in name order.
func BuiltinNames() []string {
	entries, _ := builtinFS.ReadDir("profiles")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve finds a profile by file path, by name in dir, or among the built-ins,
// in that order.
func Resolve(ref, dir string) (*Profile, error) {
	if ext := strings.ToLower(filepath.Ext(ref)); ext == ".yaml" || ext == ".yml" {
		return LoadProfile(ref)
	}
	if dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, ref+ext)
			if _, err := os.Stat(p); err == nil {
				return LoadProfile(p)
			}
		}
	}
	return Builtin(ref)
}

// Names lists profiles available from dir and the built-ins, without duplicates.
func Names(dir string) []string {
	seen := map[string]bool{}
	var out []string
	if dir != "" {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			n := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, n := range BuiltinNames() {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
