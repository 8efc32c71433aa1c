package terminal

import (
	"path"
	"regexp"
	"strings"
)

var (
	psPrompt    = regexp.MustCompile(`PS ([A-Za-z]:\\[^>\r\n]*)>`)
	windowsPath = regexp.MustCompile(`^[A-Za-z]:\\[^<>"|?*\r\n]*$`)
	posixPath   = regexp.MustCompile(`^/[^\x00\r\n]*$`)
)

// detectDirectory looks for something that reads like a working directory in
// a chunk of shell output. The last match wins. The result is a hint only.
func detectDirectory(chunk string) (string, bool) {
	if m := psPrompt.FindAllStringSubmatch(chunk, -1); len(m) > 0 {
		return m[len(m)-1][1], true
	}

	var found string
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || (strings.ContainsAny(line, " \t") && !strings.Contains(line, `\`)) {
			continue
		}
		if windowsPath.MatchString(line) || posixPath.MatchString(line) {
			found = line
		}
	}

	return found, found != ""
}

// resolveCd predicts the directory a cd-style command moves to, relative to
// the current hint. It gives up on anything it cannot resolve statically.
func resolveCd(current, home, command string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(command))
	if len(fields) == 0 {
		return "", false
	}

	switch strings.ToLower(fields[0]) {
	case "cd", "chdir", "set-location", "sl", "pushd":
	default:
		return "", false
	}

	if len(fields) == 1 {
		if home == "" {
			return "", false
		}
		return home, true
	}

	target := strings.Trim(strings.Join(fields[1:], " "), `"'`)
	switch {
	case target == "-" || strings.ContainsAny(target, "$%`;&|"):
		return "", false
	case target == "~" || strings.HasPrefix(target, "~/"):
		if home == "" {
			return "", false
		}
		return joinDir(home, strings.TrimPrefix(target[1:], "/")), true
	case windowsPath.MatchString(target):
		return target, true
	case strings.HasPrefix(target, "/"):
		return path.Clean(target), true
	}

	if current == "" {
		return "", false
	}
	return joinDir(current, target), true
}

func joinDir(base, rel string) string {
	if rel == "" {
		return base
	}
	if !windowsPath.MatchString(base) {
		return path.Join(base, rel)
	}

	parts := strings.Split(strings.TrimRight(base, `\`), `\`)
	for _, seg := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		switch seg {
		case ".":
		case "..":
			if len(parts) > 1 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	if len(parts) == 1 {
		return parts[0] + `\`
	}
	return strings.Join(parts, `\`)
}
