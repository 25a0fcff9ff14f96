package store

import (
	"strings"
	"unicode/utf8"
)

const snippetRadius = 32

// SearchMessages returns owner's messages whose text contains query,
// newest first. A non-empty peer restricts the search to one conversation.
func (db *DB) SearchMessages(owner, query, peer string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE owner = ? AND body LIKE ? ESCAPE '\'`
	args := []any{owner, "%" + escapeLike(query) + "%"}
	if peer != "" {
		q += " AND (from_id = ? OR to_id = ?)"
		args = append(args, peer, peer)
	}
	q += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Message: m, Snippet: snippet(m.Text, query)})
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet marks the first case-insensitive match of query in text with << >>.
func snippet(text, query string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if idx < 0 || query == "" {
		return text
	}
	end := idx + len(query)
	if end > len(text) {
		return text
	}

	start := idx - snippetRadius
	prefix := "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	stop := end + snippetRadius
	suffix := "..."
	if stop >= len(text) {
		stop, suffix = len(text), ""
	}
	for stop < len(text) && !utf8.RuneStart(text[stop]) {
		stop++
	}
	return prefix + text[start:idx] + "<<" + text[idx:end] + ">>" + text[end:stop] + suffix
}
