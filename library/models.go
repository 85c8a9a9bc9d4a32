package library

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one persisted entity as seen by the admin console. Identifiers
// are assigned by the backend and never generated client-side.
type Record interface {
	RecordID() string
	// DisplayName is the field the name filter matches against.
	DisplayName() string
	// Field returns the value stored under the wire name key. ok is false
	// when the record has no value for it.
	Field(key string) (any, bool)
	PhotoField() Photo
}

// Ref is a foreign-key reference. On read it may arrive as a bare id or as
// an embedded object; on write only the id is sent.
type Ref struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var embedded struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &embedded); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	id := embedded.ID
	if id == "" {
		id = embedded.AltID
	}
	*r = Ref{ID: id, Name: embedded.Name}
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Label prefers the embedded name and falls back to the id.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Author represents a book author.
type Author struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Photo       Photo  `json:"photoUrl"`
}

func (a Author) RecordID() string    { return a.ID }
func (a Author) DisplayName() string { return a.Name }
func (a Author) PhotoField() Photo   { return a.Photo }

func (a Author) Field(key string) (any, bool) {
	switch key {
	case "_id", "id":
		return nonEmpty(a.ID)
	case "name":
		return nonEmpty(a.Name)
	case "description":
		return nonEmpty(a.Description)
	case "photo", "photoUrl":
		return photoValue(a.Photo)
	}
	return nil, false
}

// Book represents a catalogue entry. AuthorID and GenreID may carry an
// embedded name when the backend populates them; Author and Genre are the
// separately embedded variants some backends send.
type Book struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	ISBN        string `json:"isbn"`
	Summary     string `json:"summary"`
	IsAvailable bool   `json:"isAvailable"`
	AuthorID    Ref    `json:"authorId"`
	GenreID     Ref    `json:"genreId"`
	Author      *Ref   `json:"author,omitempty"`
	Genre       *Ref   `json:"genre,omitempty"`
	Photo       Photo  `json:"photoUrl"`
}

func (b Book) RecordID() string    { return b.ID }
func (b Book) DisplayName() string { return b.Name }
func (b Book) PhotoField() Photo   { return b.Photo }

// AuthorLabel returns the author name if known, else the reference id.
func (b Book) AuthorLabel() string {
	if b.Author != nil && b.Author.Label() != "" {
		return b.Author.Label()
	}
	return b.AuthorID.Label()
}

// GenreLabel mirrors the card badge: the genre name or "No Genre".
func (b Book) GenreLabel() string {
	if b.Genre != nil && b.Genre.Name != "" {
		return b.Genre.Name
	}
	if b.GenreID.Name != "" {
		return b.GenreID.Name
	}
	return "No Genre"
}

func (b Book) Field(key string) (any, bool) {
	switch key {
	case "_id", "id":
		return nonEmpty(b.ID)
	case "name":
		return nonEmpty(b.Name)
	case "isbn":
		return nonEmpty(b.ISBN)
	case "summary":
		return nonEmpty(b.Summary)
	case "isAvailable":
		return b.IsAvailable, true
	case "authorId", "author":
		return nonEmpty(b.AuthorLabel())
	case "genreId", "genre":
		if b.GenreLabel() == "No Genre" {
			return nil, false
		}
		return b.GenreLabel(), true
	case "photo", "photoUrl":
		return photoValue(b.Photo)
	}
	return nil, false
}

// User is a library account. The password is write-only and never decoded.
type User struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	DOB     string `json:"dob"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	IsAdmin bool   `json:"isAdmin"`
	Photo   Photo  `json:"photoUrl"`
}

func (u User) RecordID() string    { return u.ID }
func (u User) DisplayName() string { return u.Name }
func (u User) PhotoField() Photo   { return u.Photo }

func (u User) Field(key string) (any, bool) {
	switch key {
	case "_id", "id":
		return nonEmpty(u.ID)
	case "name":
		return nonEmpty(u.Name)
	case "dob":
		return nonEmpty(u.DOB)
	case "email":
		return nonEmpty(u.Email)
	case "phone":
		return nonEmpty(u.Phone)
	case "isAdmin":
		return u.IsAdmin, true
	case "photo", "photoUrl":
		return photoValue(u.Photo)
	}
	return nil, false
}

// Genre is a read-only lookup used by the book form.
type Genre struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (g Genre) RecordID() string    { return g.ID }
func (g Genre) DisplayName() string { return g.Name }
func (g Genre) PhotoField() Photo   { return Photo{} }

func (g Genre) Field(key string) (any, bool) {
	switch key {
	case "_id", "id":
		return nonEmpty(g.ID)
	case "name":
		return nonEmpty(g.Name)
	}
	return nil, false
}

func nonEmpty(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func photoValue(p Photo) (any, bool) {
	if p.URL() == "" {
		return nil, false
	}
	return p.URL(), true
}
