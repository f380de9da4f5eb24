package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

// startProfiler starts the continuous CPU profiler against the configured
// ingest endpoint. The caller has already gated on ProfilingURL != nil.
func startProfiler(cfg *config.Telemetry) (*pyroscope.Profiler, error) {
	pc := pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.ProfilingURL.String(),
		Tags:            profileTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	}
	if cfg.ProfilingAuth != nil {
		pc.BasicAuthUser = cfg.ProfilingAuth.User
		pc.BasicAuthPassword = cfg.ProfilingAuth.Password
	}

	return pyroscope.Start(pc)
}

// profileTags derives profiler tags from the resource attributes.
// service.name is carried by ApplicationName, not a tag.
func profileTags(cfg *config.Telemetry) map[string]string {
	tags := make(map[string]string, len(cfg.ResourceAttributes))
	for k, v := range cfg.ResourceAttributes {
		if k == "service.name" {
			continue
		}
		tags[k] = v
	}
	return tags
}

// SourceResolver maps profile frame file paths back to source files under
// a set of search directories, so flamegraph tooling can link frames to
// code. It is optional: profiling runs fine without one.
type SourceResolver struct {
	roots []string
}

// NewSourceResolver builds a resolver from a list of search directories.
// It fails when none of the directories exist; callers degrade to
// profiling without symbol resolution.
func NewSourceResolver(dirs []string) (*SourceResolver, error) {
	var roots []string
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no usable source directories among %v", dirs)
	}
	// Longest root first so nested directories win.
	sort.Slice(roots, func(i, j int) bool { return len(roots[i]) > len(roots[j]) })
	return &SourceResolver{roots: roots}, nil
}

// Resolve returns the path of file relative to the first matching search
// root. The second return is false when no root contains the file.
func (r *SourceResolver) Resolve(file string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, root := range r.roots {
		if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return rel, true
		}
	}
	return "", false
}

// Roots returns the resolver's search roots, longest first.
func (r *SourceResolver) Roots() []string {
	if r == nil {
		return nil
	}
	return r.roots
}
