package store

import "strings"

const (
	usersPartition    = "users"
	metadataPartition = "meta-data"
	contentPartition  = "content"
)

// Path is a slash-separated location below the tree root. The root is "".
type Path string

// PathOf joins segments into a path.
func PathOf(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// Segments returns the path's segments, or nil for the root.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), "/")
}

// Split returns the parent collection and the final key.
func (p Path) Split() (parent Path, key string) {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return "", string(p)
	}
	return p[:i], string(p[i+1:])
}

// Child returns the path of a child key.
func (p Path) Child(key string) Path {
	if p == "" {
		return Path(key)
	}
	return p + "/" + Path(key)
}

func (p Path) String() string { return string(p) }

// validSegment reports whether s can be used as one path segment.
// '#' is reserved for shard suffixes and ':' for Firestore collection IDs.
func validSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, "/#:")
}

// validPath reports whether every segment of p is valid.
func validPath(p Path) bool {
	if p == "" {
		return false
	}
	for _, seg := range p.Segments() {
		if !validSegment(seg) {
			return false
		}
	}
	return true
}

// UserPath returns users/{id}.
func UserPath(id string) Path { return PathOf(usersPartition, id) }

// MetadataPath returns {section}/meta-data.
func MetadataPath(section string) Path { return PathOf(section, metadataPartition) }

// ContentPath returns {section}/content.
func ContentPath(section string) Path { return PathOf(section, contentPartition) }

// ParseContentPath reports whether p is {section}/content/{docID} and returns its parts.
func ParseContentPath(p Path) (section, docID string, ok bool) {
	segs := p.Segments()
	if len(segs) != 3 || segs[1] != contentPartition {
		return "", "", false
	}
	if !validSegment(segs[0]) || !validSegment(segs[2]) {
		return "", "", false
	}
	return segs[0], segs[2], true
}
