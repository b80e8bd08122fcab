package service

import "strings"

// ParseInviteList extracts email addresses from an uploaded invitation file.
// The format is one address per line with an optional header line; quotes
// around values are stripped. Blank lines are skipped and duplicates are
// removed preserving first occurrence, so each distinct address is processed
// at most once per batch.
func ParseInviteList(raw string) []string {
	raw = strings.ReplaceAll(raw, "\"", "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	lines := strings.Split(raw, "\n")
	if len(lines) > 0 && isHeaderLine(lines[0]) {
		lines = lines[1:]
	}
	return dedupeEmails(lines)
}

// isHeaderLine detects the conventional CSV header row ("email"). Anything
// containing an @ is treated as data.
func isHeaderLine(line string) bool {
	line = strings.ToLower(strings.TrimSpace(line))
	return line != "" && !strings.Contains(line, "@")
}

// dedupeEmails normalizes addresses (lowercase, trimmed, trailing comma
// stripped) and drops blanks and duplicates, preserving first occurrence.
// The engine applies it again on its own input so the per-distinct-email
// contract holds regardless of the caller.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		email := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(e), ",")))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
