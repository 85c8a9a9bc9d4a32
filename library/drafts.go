package library

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Draft is the in-progress form state for one record.
type Draft interface {
	// Fields returns the scalar multipart fields in submission order.
	Fields() []FormField
	// Validate reports required fields that are still empty.
	Validate() error
	// DisplayName seeds the generated avatar while the form is open.
	DisplayName() string
}

func notBlank(code, message string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	})
}

// ------------------ Author ------------------

type AuthorDraft struct {
	Name        string
	Description string
}

func NewAuthorDraft() AuthorDraft { return AuthorDraft{} }

func AuthorDraftFrom(a Author) AuthorDraft {
	return AuthorDraft{Name: a.Name, Description: a.Description}
}

func (d AuthorDraft) DisplayName() string { return d.Name }

func (d AuthorDraft) Fields() []FormField {
	return []FormField{
		{Name: "name", Value: d.Name},
		{Name: "description", Value: d.Description},
	}
}

func (d AuthorDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, notBlank("library.author.name_required", "author name is required")),
	)
}

// ------------------ Book ------------------

type BookDraft struct {
	Name        string
	ISBN        string
	Summary     string
	IsAvailable bool
	AuthorID    string
	GenreID     string
}

// NewBookDraft returns an empty book; new books start out available.
func NewBookDraft() BookDraft { return BookDraft{IsAvailable: true} }

func BookDraftFrom(b Book) BookDraft {
	authorID := b.AuthorID.ID
	if authorID == "" && b.Author != nil {
		authorID = b.Author.ID
	}
	genreID := b.GenreID.ID
	if genreID == "" && b.Genre != nil {
		genreID = b.Genre.ID
	}
	return BookDraft{
		Name:        b.Name,
		ISBN:        b.ISBN,
		Summary:     b.Summary,
		IsAvailable: b.IsAvailable,
		AuthorID:    authorID,
		GenreID:     genreID,
	}
}

func (d BookDraft) DisplayName() string { return d.Name }

// Fields omits authorId and genreId when they are not set.
func (d BookDraft) Fields() []FormField {
	fields := []FormField{
		{Name: "name", Value: d.Name},
		{Name: "isbn", Value: d.ISBN},
		{Name: "summary", Value: d.Summary},
		BoolField("isAvailable", d.IsAvailable),
	}
	if d.AuthorID != "" {
		fields = append(fields, FormField{Name: "authorId", Value: d.AuthorID})
	}
	if d.GenreID != "" {
		fields = append(fields, FormField{Name: "genreId", Value: d.GenreID})
	}
	return fields
}

func (d BookDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, notBlank("library.book.name_required", "book name is required")),
		validation.Field(&d.ISBN, validation.Required, notBlank("library.book.isbn_required", "isbn is required")),
	)
}

// ------------------ User ------------------

// UserDraft carries a write-only password; an empty password on update
// leaves the stored one unchanged.
type UserDraft struct {
	Name     string
	DOB      string
	Email    string
	Phone    string
	IsAdmin  bool
	Password string
}

func NewUserDraft() UserDraft { return UserDraft{} }

func UserDraftFrom(u User) UserDraft {
	return UserDraft{Name: u.Name, DOB: u.DOB, Email: u.Email, Phone: u.Phone, IsAdmin: u.IsAdmin}
}

func (d UserDraft) DisplayName() string { return d.Name }

func (d UserDraft) Fields() []FormField {
	fields := []FormField{
		{Name: "name", Value: d.Name},
		{Name: "dob", Value: d.DOB},
		{Name: "email", Value: d.Email},
		{Name: "phone", Value: d.Phone},
		BoolField("isAdmin", d.IsAdmin),
	}
	if d.Password != "" {
		fields = append(fields, FormField{Name: "password", Value: d.Password})
	}
	return fields
}

func (d UserDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, notBlank("library.user.name_required", "user name is required")),
	)
}
