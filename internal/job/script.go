package job

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Script is the parsed result of a job-script file (spec §6): a line-
// oriented format where `#`-prefixed lines are headers and the first
// non-header, non-blank line is the command to run.
type Script struct {
	JobName      string
	Priority     Priority
	MemoryLimit  uint64
	RuntimeLimit int
	Cores        int
	Dependencies []ID
	Command      string
}

// ParseScript reads and parses the job-script file at path.
func ParseScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("job: open script %q: %w", path, err)
	}
	defer f.Close()

	s := &Script{
		Priority:     Medium,
		MemoryLimit:  1024,
		RuntimeLimit: 3600,
		Cores:        1,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			s.Command = line
			break
		}

		if err := s.applyHeader(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("job: read script %q: %w", path, err)
	}

	if s.Command == "" {
		return nil, fmt.Errorf("job: no command found in job script %q", path)
	}
	return s, nil
}

func (s *Script) applyHeader(line string) error {
	switch {
	case strings.Contains(line, "JOB_NAME:"):
		s.JobName = headerValue(line, "JOB_NAME:")
	case strings.Contains(line, "PRIORITY:"):
		p, err := ParsePriority(headerValue(line, "PRIORITY:"))
		if err != nil {
			return fmt.Errorf("job: %w", err)
		}
		s.Priority = p
	case strings.Contains(line, "MEMORY_LIMIT:"):
		v, err := strconv.ParseUint(headerValue(line, "MEMORY_LIMIT:"), 10, 64)
		if err != nil {
			return fmt.Errorf("job: malformed MEMORY_LIMIT: %w", err)
		}
		s.MemoryLimit = v
	case strings.Contains(line, "RUNTIME_LIMIT:"):
		v, err := strconv.Atoi(headerValue(line, "RUNTIME_LIMIT:"))
		if err != nil {
			return fmt.Errorf("job: malformed RUNTIME_LIMIT: %w", err)
		}
		s.RuntimeLimit = v
	case strings.Contains(line, "CORES:"):
		v, err := strconv.Atoi(headerValue(line, "CORES:"))
		if err != nil {
			return fmt.Errorf("job: malformed CORES: %w", err)
		}
		s.Cores = v
	case strings.Contains(line, "DEPENDENCIES:"):
		val := headerValue(line, "DEPENDENCIES:")
		for _, part := range strings.Split(val, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return fmt.Errorf("job: malformed DEPENDENCIES entry %q: %w", part, err)
			}
			s.Dependencies = append(s.Dependencies, ID(n))
		}
	}
	return nil
}

func headerValue(line, key string) string {
	idx := strings.Index(line, key)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+len(key):])
}

// Limits derives job.Limits from the script's resource headers.
func (s *Script) Limits() Limits {
	return Limits{
		MaxMemoryMB:       s.MemoryLimit,
		MaxRuntimeSeconds: s.RuntimeLimit,
		MaxCPUCores:       s.Cores,
	}
}
