// Package session parses the delimiter-encoded session list stored with each speaker.
package session

import "strings"

const (
	// Separator splits entries in an encoded session list.
	Separator = " | "
	// LinkAnchor precedes the parenthesized session URL.
	LinkAnchor = " - [🔗 Session Link]("
	roleOpen   = " ("
)

// Session is one structured session entry.
type Session struct {
	title string
	role  string
	url   string
}

// New creates a session. Empty role or url means absent.
func New(title, role, url string) Session {
	return Session{title: title, role: role, url: url}
}

// Title returns the session title.
func (s Session) Title() string { return s.title }

// Role returns the speaker's role in the session ("" if absent).
func (s Session) Role() string { return s.role }

// URL returns the session link ("" if absent).
func (s Session) URL() string { return s.url }

// HasRole reports whether a role was parsed.
func (s Session) HasRole() bool { return s.role != "" }

// HasURL reports whether a link was parsed.
func (s Session) HasURL() bool { return s.url != "" }

// Parse expands an encoded list such as
//
//	Keynote (Speaker) - [🔗 Session Link](https://example.com/s1) | Panel
//
// into sessions, preserving order. Entries without the expected markers keep
// whatever text they have as the title.
func Parse(encoded string) []Session {
	if strings.TrimSpace(encoded) == "" {
		return nil
	}

	entries := strings.Split(encoded, Separator)
	out := make([]Session, 0, len(entries))
	for _, entry := range entries {
		out = append(out, parseEntry(entry))
	}
	return out
}

func parseEntry(entry string) Session {
	head, url := entry, ""
	if i := strings.LastIndex(entry, LinkAnchor); i >= 0 {
		head = entry[:i]
		url = strings.TrimSuffix(entry[i+len(LinkAnchor):], ")")
	}

	title, role := head, ""
	if strings.HasSuffix(strings.TrimSpace(head), ")") {
		if i := strings.LastIndex(head, roleOpen); i >= 0 {
			title = head[:i]
			role = strings.TrimSuffix(strings.TrimSpace(head[i+len(roleOpen):]), ")")
		}
	}

	return Session{
		title: strings.TrimSpace(title),
		role:  strings.TrimSpace(role),
		url:   strings.TrimSpace(url),
	}
}
