package runner

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lcalzada-xor/axss/pkg/logger"
	"github.com/lcalzada-xor/axss/pkg/models"
)

// readURLFile loads one URL per line. Blank lines and # comments are
// skipped, and so are invalid URLs, with a warning.
func readURLFile(path string, log *logger.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if err := models.ValidateURL(raw); err != nil {
			log.Warn("Skipping invalid URL on line %d: %s", line, raw)
			continue
		}
		urls = append(urls, raw)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read URL list: %w", err)
	}
	log.Info("Loaded %d URLs from %s", len(urls), path)
	return urls, nil
}

// dedupe drops repeated URLs, keeping the first occurrence.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// parseHeaders turns "Name: value" strings into a map. Malformed entries
// are returned as an error.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
