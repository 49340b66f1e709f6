package store

import (
	"maps"
	"slices"
	"time"
)

// Record keys.
const (
	KeyAuthor   = "author"
	KeyAuthorID = "authorID"
	KeyContent  = "content"
	KeyDocID    = "docID"
	KeyTime     = "time"
	KeyTitle    = "title"

	KeyName  = "name"
	KeyEmail = "email"
)

// DateLayout is the layout of the time stamp on entries (YYYY/MM/DD).
const DateLayout = "2006/01/02"

// Fields is a flat record as stored in the tree.
type Fields map[string]string

// Clone returns a shallow copy, never nil.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	maps.Copy(out, f)
	return out
}

// Identity is an account supplied by the authentication provider after sign-in.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// User is the record stored at users/{id}.
type User struct {
	Name  string
	Email string
}

// Fields returns the stored form of the user.
func (u User) Fields() Fields {
	return Fields{KeyName: u.Name, KeyEmail: u.Email}
}

// Entry is a user submission. The section it belongs to is given separately.
type Entry struct {
	Title   string
	Content string

	// Extra holds additional fields copied into both derived records.
	// Stamped keys (docID, author, authorID, time) take precedence.
	Extra map[string]string
}

// valid reports whether the entry carries both a title and content.
func (e Entry) valid() bool {
	return e.Title != "" && e.Content != ""
}

// fields flattens the entry, attaching its document ID.
func (e Entry) fields(docID string) Fields {
	f := make(Fields, len(e.Extra)+3)
	maps.Copy(f, e.Extra)
	f[KeyTitle] = e.Title
	f[KeyContent] = e.Content
	f[KeyDocID] = docID
	return f
}

// Metadata is the listing view of an entry. It never carries the body.
type Metadata struct {
	DocID  string
	Title  string
	Author string
	Time   string
	Extra  map[string]string
}

// MetadataFromFields decodes a metadata record.
func MetadataFromFields(f Fields) Metadata {
	return Metadata{
		DocID:  f[KeyDocID],
		Title:  f[KeyTitle],
		Author: f[KeyAuthor],
		Time:   f[KeyTime],
		Extra:  extra(f, KeyDocID, KeyTitle, KeyAuthor, KeyTime),
	}
}

// Fields returns the stored form of the record.
func (m Metadata) Fields() Fields {
	f := make(Fields, len(m.Extra)+4)
	maps.Copy(f, m.Extra)
	f[KeyDocID] = m.DocID
	f[KeyTitle] = m.Title
	f[KeyAuthor] = m.Author
	f[KeyTime] = m.Time
	return f
}

// Content is the detail view of an entry, including the body.
type Content struct {
	DocID    string
	Title    string
	Author   string
	AuthorID string
	Time     string
	Content  string
	Extra    map[string]string
}

// ContentFromFields decodes a content record.
func ContentFromFields(f Fields) Content {
	return Content{
		DocID:    f[KeyDocID],
		Title:    f[KeyTitle],
		Author:   f[KeyAuthor],
		AuthorID: f[KeyAuthorID],
		Time:     f[KeyTime],
		Content:  f[KeyContent],
		Extra:    extra(f, KeyDocID, KeyTitle, KeyAuthor, KeyAuthorID, KeyTime, KeyContent),
	}
}

// Fields returns the stored form of the record.
func (c Content) Fields() Fields {
	f := make(Fields, len(c.Extra)+6)
	maps.Copy(f, c.Extra)
	f[KeyDocID] = c.DocID
	f[KeyTitle] = c.Title
	f[KeyAuthor] = c.Author
	f[KeyAuthorID] = c.AuthorID
	f[KeyTime] = c.Time
	f[KeyContent] = c.Content
	return f
}

// metadataRecord derives the metadata record from a flattened entry.
func metadataRecord(entry Fields, author, date string) Fields {
	rec := entry.Clone()
	delete(rec, KeyContent)
	delete(rec, KeyAuthorID)
	rec[KeyAuthor] = author
	rec[KeyTime] = date
	return rec
}

// contentRecord derives the content record from a flattened entry.
func contentRecord(entry Fields, author, authorID, date string) Fields {
	rec := entry.Clone()
	rec[KeyAuthor] = author
	rec[KeyAuthorID] = authorID
	rec[KeyTime] = date
	return rec
}

// metadataFromContent projects a stored content record onto the metadata layout.
func metadataFromContent(content Fields) Fields {
	rec := content.Clone()
	delete(rec, KeyContent)
	delete(rec, KeyAuthorID)
	return rec
}

// formatDate formats t in its own location as YYYY/MM/DD.
func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func extra(f Fields, known ...string) map[string]string {
	var out map[string]string
	for k, v := range f {
		if slices.Contains(known, k) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}
