package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"go.uber.org/zap"
)

// profiler captures pprof profiles around a simulation run.
type profiler struct {
	dir     string
	types   []string
	cpuFile *os.File
	log     *zap.Logger
}

// parseProfileTypes parses the profile types string
func parseProfileTypes(typesStr string) []string {
	if typesStr == "all" {
		return []string{"cpu", "memory", "block", "mutex", "goroutine"}
	}

	parts := strings.Split(typesStr, ",")
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "cpu", "memory", "mem", "block", "mutex", "goroutine":
			if part == "mem" {
				part = "memory"
			}
			types = append(types, part)
		}
	}
	return types
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// startProfiling creates dir and starts the CPU profile when requested.
// Block and mutex sampling are switched on for the duration of the run.
func startProfiling(dir, typesStr string, log *zap.Logger) (*profiler, error) {
	p := &profiler{dir: dir, types: parseProfileTypes(typesStr), log: log}
	if len(p.types) == 0 {
		return nil, fmt.Errorf("no known profile type in %q", typesStr)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	if contains(p.types, "block") {
		runtime.SetBlockProfileRate(1)
	}
	if contains(p.types, "mutex") {
		runtime.SetMutexProfileFraction(1)
	}

	if contains(p.types, "cpu") {
		f, err := os.Create(filepath.Join(dir, "cpu.prof"))
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}
	return p, nil
}

// stop ends the CPU profile and writes the snapshot profiles.
func (p *profiler) stop() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.log.Info("profile written", zap.String("type", "cpu"), zap.String("path", p.cpuFile.Name()))
	}

	for _, t := range p.types {
		switch t {
		case "memory":
			runtime.GC()
			p.write("heap", "mem.prof")
		case "block", "mutex", "goroutine":
			p.write(t, t+".prof")
		}
	}

	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)
}

func (p *profiler) write(name, file string) {
	profile := pprof.Lookup(name)
	if profile == nil {
		p.log.Warn("profile not found", zap.String("type", name))
		return
	}

	path := filepath.Join(p.dir, file)
	f, err := os.Create(path)
	if err != nil {
		p.log.Warn("failed to create profile", zap.String("type", name), zap.Error(err))
		return
	}
	defer f.Close()

	if err := profile.WriteTo(f, 0); err != nil {
		p.log.Warn("failed to write profile", zap.String("type", name), zap.Error(err))
		return
	}
	p.log.Info("profile written", zap.String("type", name), zap.String("path", path))
}
