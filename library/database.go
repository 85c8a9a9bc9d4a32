package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// Sandbox is a local SQLite stand-in for the REST backend, used for offline
// demos and tests. It assigns ids the way the real backend does and keeps
// uploaded photos under a media directory next to the database.
type Sandbox struct {
	db       *sql.DB
	mediaDir string

	addAuthorStmt *sql.Stmt
	addBookStmt   *sql.Stmt
	addUserStmt   *sql.Stmt
}

// DefaultGenres are seeded into a new sandbox so the book form has choices.
var DefaultGenres = []string{"Biography", "Fantasy", "Fiction", "History", "Non-fiction", "Science Fiction"}

// NewSandbox opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewSandbox(dbPath string) (*Sandbox, error) {
	dir := filepath.Dir(dbPath)
	// Ensure directory exists so first-run succeeds.
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	sb := &Sandbox{db: db, mediaDir: filepath.Join(dir, "media")}
	if err := sb.prepareStatements(); err != nil {
		sb.Close()
		return nil, err
	}
	return sb, nil
}

// Close releases prepared statements and closes the DB.
func (s *Sandbox) Close() error {
	for _, stmt := range []*sql.Stmt{s.addAuthorStmt, s.addBookStmt, s.addUserStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS authors (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            photo_public_id TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS genres (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            isbn TEXT NOT NULL,
            summary TEXT NOT NULL DEFAULT '',
            is_available BOOLEAN NOT NULL DEFAULT 1,
            author_id TEXT REFERENCES authors(id) ON DELETE SET NULL,
            genre_id TEXT REFERENCES genres(id) ON DELETE SET NULL,
            photo_url TEXT NOT NULL DEFAULT '',
            photo_public_id TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            dob TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            password_hash TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            photo_public_id TEXT NOT NULL DEFAULT ''
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	for _, name := range DefaultGenres {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO genres(id,name) VALUES(?,?)`, uuid.NewString(), name); err != nil {
			return fmt.Errorf("seed genres: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (s *Sandbox) prepareStatements() error {
	var err error
	if s.addAuthorStmt, err = s.db.Prepare(`INSERT INTO authors(id,name,description,photo_url,photo_public_id) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if s.addBookStmt, err = s.db.Prepare(`INSERT INTO books(id,name,isbn,summary,is_available,author_id,genre_id,photo_url,photo_public_id) VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if s.addUserStmt, err = s.db.Prepare(`INSERT INTO users(id,name,dob,email,phone,is_admin,password_hash,photo_url,photo_public_id) VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// storePhoto copies an uploaded attachment into the media directory.
func (s *Sandbox) storePhoto(a *Attachment) (Photo, error) {
	if a == nil {
		return Photo{}, nil
	}
	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		return Photo{}, fmt.Errorf("create media dir: %w", err)
	}
	publicID := uuid.NewString()
	ext := ".png"
	if a.ContentType == "image/jpeg" || a.ContentType == "image/jpg" {
		ext = ".jpg"
	}
	path := filepath.Join(s.mediaDir, publicID+ext)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return Photo{}, fmt.Errorf("store photo: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return UploadedPhoto("file://"+filepath.ToSlash(abs), publicID), nil
}

func scanPhoto(url, publicID string) Photo {
	if publicID != "" {
		return UploadedPhoto(url, publicID)
	}
	return RemotePhoto(url)
}

func payloadBool(p Payload, name string, def bool) (bool, error) {
	v, ok := p.Get(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: field %s: %q is not a boolean", ErrRequestFailed, name, v)
	}
	return b, nil
}

func payloadString(p Payload, name string) string {
	v, _ := p.Get(name)
	return v
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireName(p Payload, kind Kind) error {
	if strings.TrimSpace(payloadString(p, "name")) == "" {
		return fmt.Errorf("%w: %s name is required", ErrRequestFailed, kind.Route)
	}
	return nil
}

// checkAffected turns a zero-row update or delete into a missing-record error.
func checkAffected(res sql.Result, kind Kind, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s does not exist", ErrRequestFailed, kind.Route, id)
	}
	return nil
}

// discardPhoto removes a file written by storePhoto. Photos kept anywhere
// else are left alone.
func (s *Sandbox) discardPhoto(p Photo) {
	if p.Kind != UploadedObject || !strings.HasPrefix(p.Location, "file://") {
		return
	}
	path := filepath.FromSlash(strings.TrimPrefix(p.Location, "file://"))
	dir, err := filepath.Abs(s.mediaDir)
	if err != nil || filepath.Dir(path) != dir {
		return
	}
	os.Remove(path)
}

// updatePhoto replaces the photo columns of table row id when a new
// attachment was supplied; no attachment keeps the stored photo. It returns
// the new photo and the one it replaced so the caller can drop the right
// file once the transaction has settled.
func (s *Sandbox) updatePhoto(ctx context.Context, tx *sql.Tx, table, id string, a *Attachment) (stored, previous Photo, err error) {
	if a == nil {
		return Photo{}, Photo{}, nil
	}
	var url, publicID string
	err = tx.QueryRowContext(ctx, `SELECT photo_url, photo_public_id FROM `+table+` WHERE id=?`, id).Scan(&url, &publicID)
	if err != nil {
		return Photo{}, Photo{}, err
	}
	previous = scanPhoto(url, publicID)

	stored, err = s.storePhoto(a)
	if err != nil {
		return Photo{}, Photo{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE `+table+` SET photo_url=?, photo_public_id=? WHERE id=?`, stored.URL(), stored.PublicID, id); err != nil {
		s.discardPhoto(stored)
		return Photo{}, Photo{}, err
	}
	return stored, previous, nil
}

// commitPhoto commits tx and then drops whichever media file lost: the new
// one when the commit failed, the replaced one when it succeeded.
func (s *Sandbox) commitPhoto(tx *sql.Tx, stored, previous Photo) error {
	if err := tx.Commit(); err != nil {
		s.discardPhoto(stored)
		return err
	}
	if stored.Kind != NoPhoto {
		s.discardPhoto(previous)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authors
// ---------------------------------------------------------------------------

// Authors returns the author backend.
func (s *Sandbox) Authors() Backend[Author] { return sandboxAuthors{s} }

type sandboxAuthors struct{ s *Sandbox }

func (b sandboxAuthors) GetAll(ctx context.Context) ([]Author, error) {
	rows, err := b.s.db.QueryContext(ctx, `SELECT id,name,description,photo_url,photo_public_id FROM authors ORDER BY rowid`)
	if err != nil {
		return nil, wrapRequestError(err, "load authors")
	}
	defer rows.Close()

	authors := []Author{}
	for rows.Next() {
		var a Author
		var url, publicID string
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &url, &publicID); err != nil {
			return nil, wrapRequestError(err, "load authors")
		}
		a.Photo = scanPhoto(url, publicID)
		authors = append(authors, a)
	}
	return authors, wrapRequestError(rows.Err(), "load authors")
}

func (b sandboxAuthors) get(ctx context.Context, id string) (Author, error) {
	var a Author
	var url, publicID string
	err := b.s.db.QueryRowContext(ctx, `SELECT id,name,description,photo_url,photo_public_id FROM authors WHERE id=?`, id).
		Scan(&a.ID, &a.Name, &a.Description, &url, &publicID)
	if err != nil {
		return Author{}, wrapRequestError(err, "get author")
	}
	a.Photo = scanPhoto(url, publicID)
	return a, nil
}

func (b sandboxAuthors) Create(ctx context.Context, p Payload) (Author, error) {
	if err := requireName(p, AuthorKind); err != nil {
		return Author{}, wrapRequestError(err, "post author")
	}
	photo, err := b.s.storePhoto(p.Attachment)
	if err != nil {
		return Author{}, wrapRequestError(err, "post author")
	}
	id := uuid.NewString()
	if _, err := b.s.addAuthorStmt.ExecContext(ctx, id, payloadString(p, "name"), payloadString(p, "description"), photo.URL(), photo.PublicID); err != nil {
		b.s.discardPhoto(photo)
		return Author{}, wrapRequestError(err, "post author")
	}
	return b.get(ctx, id)
}

func (b sandboxAuthors) Update(ctx context.Context, id string, p Payload) (Author, error) {
	if err := requireName(p, AuthorKind); err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	tx, err := b.s.db.BeginTx(ctx, nil)
	if err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE authors SET name=?, description=? WHERE id=?`, payloadString(p, "name"), payloadString(p, "description"), id)
	if err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	if err := checkAffected(res, AuthorKind, id); err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	stored, previous, err := b.s.updatePhoto(ctx, tx, "authors", id, p.Attachment)
	if err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	if err := b.s.commitPhoto(tx, stored, previous); err != nil {
		return Author{}, wrapRequestError(err, "put author")
	}
	return b.get(ctx, id)
}

func (b sandboxAuthors) Delete(ctx context.Context, id string) error {
	res, err := b.s.db.ExecContext(ctx, `DELETE FROM authors WHERE id=?`, id)
	if err != nil {
		return wrapRequestError(err, "delete author")
	}
	return wrapRequestError(checkAffected(res, AuthorKind, id), "delete author")
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// Books returns the book backend. Listed books embed their author and genre names.
func (s *Sandbox) Books() Backend[Book] { return sandboxBooks{s} }

type sandboxBooks struct{ s *Sandbox }

const bookSelect = `SELECT b.id, b.name, b.isbn, b.summary, b.is_available,
        COALESCE(b.author_id,''), COALESCE(a.name,''), COALESCE(b.genre_id,''), COALESCE(g.name,''),
        b.photo_url, b.photo_public_id
    FROM books b
    LEFT JOIN authors a ON a.id = b.author_id
    LEFT JOIN genres g ON g.id = b.genre_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	var url, publicID string
	if err := row.Scan(&b.ID, &b.Name, &b.ISBN, &b.Summary, &b.IsAvailable,
		&b.AuthorID.ID, &b.AuthorID.Name, &b.GenreID.ID, &b.GenreID.Name, &url, &publicID); err != nil {
		return Book{}, err
	}
	b.Photo = scanPhoto(url, publicID)
	return b, nil
}

func (b sandboxBooks) GetAll(ctx context.Context) ([]Book, error) {
	rows, err := b.s.db.QueryContext(ctx, bookSelect+` ORDER BY b.rowid`)
	if err != nil {
		return nil, wrapRequestError(err, "load books")
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		bk, err := scanBook(rows)
		if err != nil {
			return nil, wrapRequestError(err, "load books")
		}
		books = append(books, bk)
	}
	return books, wrapRequestError(rows.Err(), "load books")
}

func (b sandboxBooks) get(ctx context.Context, id string) (Book, error) {
	bk, err := scanBook(b.s.db.QueryRowContext(ctx, bookSelect+` WHERE b.id=?`, id))
	if err != nil {
		return Book{}, wrapRequestError(err, "get book")
	}
	return bk, nil
}

func (b sandboxBooks) Create(ctx context.Context, p Payload) (Book, error) {
	if err := requireName(p, BookKind); err != nil {
		return Book{}, wrapRequestError(err, "post book")
	}
	available, err := payloadBool(p, "isAvailable", true)
	if err != nil {
		return Book{}, wrapRequestError(err, "post book")
	}
	photo, err := b.s.storePhoto(p.Attachment)
	if err != nil {
		return Book{}, wrapRequestError(err, "post book")
	}
	id := uuid.NewString()
	_, err = b.s.addBookStmt.ExecContext(ctx, id,
		payloadString(p, "name"), payloadString(p, "isbn"), payloadString(p, "summary"), available,
		nullable(payloadString(p, "authorId")), nullable(payloadString(p, "genreId")),
		photo.URL(), photo.PublicID)
	if err != nil {
		b.s.discardPhoto(photo)
		return Book{}, wrapRequestError(err, "post book")
	}
	return b.get(ctx, id)
}

func (b sandboxBooks) Update(ctx context.Context, id string, p Payload) (Book, error) {
	if err := requireName(p, BookKind); err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	available, err := payloadBool(p, "isAvailable", true)
	if err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	tx, err := b.s.db.BeginTx(ctx, nil)
	if err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE books SET name=?, isbn=?, summary=?, is_available=?, author_id=?, genre_id=? WHERE id=?`,
		payloadString(p, "name"), payloadString(p, "isbn"), payloadString(p, "summary"), available,
		nullable(payloadString(p, "authorId")), nullable(payloadString(p, "genreId")), id)
	if err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	if err := checkAffected(res, BookKind, id); err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	stored, previous, err := b.s.updatePhoto(ctx, tx, "books", id, p.Attachment)
	if err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	if err := b.s.commitPhoto(tx, stored, previous); err != nil {
		return Book{}, wrapRequestError(err, "put book")
	}
	return b.get(ctx, id)
}

func (b sandboxBooks) Delete(ctx context.Context, id string) error {
	res, err := b.s.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return wrapRequestError(err, "delete book")
	}
	return wrapRequestError(checkAffected(res, BookKind, id), "delete book")
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// Users returns the user backend. Passwords are stored as bcrypt hashes.
func (s *Sandbox) Users() Backend[User] { return sandboxUsers{s} }

type sandboxUsers struct{ s *Sandbox }

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (b sandboxUsers) GetAll(ctx context.Context) ([]User, error) {
	rows, err := b.s.db.QueryContext(ctx, `SELECT id,name,dob,email,phone,is_admin,photo_url,photo_public_id FROM users ORDER BY rowid`)
	if err != nil {
		return nil, wrapRequestError(err, "load users")
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		var url, publicID string
		if err := rows.Scan(&u.ID, &u.Name, &u.DOB, &u.Email, &u.Phone, &u.IsAdmin, &url, &publicID); err != nil {
			return nil, wrapRequestError(err, "load users")
		}
		u.Photo = scanPhoto(url, publicID)
		users = append(users, u)
	}
	return users, wrapRequestError(rows.Err(), "load users")
}

func (b sandboxUsers) get(ctx context.Context, id string) (User, error) {
	var u User
	var url, publicID string
	err := b.s.db.QueryRowContext(ctx, `SELECT id,name,dob,email,phone,is_admin,photo_url,photo_public_id FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Name, &u.DOB, &u.Email, &u.Phone, &u.IsAdmin, &url, &publicID)
	if err != nil {
		return User{}, wrapRequestError(err, "get user")
	}
	u.Photo = scanPhoto(url, publicID)
	return u, nil
}

func (b sandboxUsers) Create(ctx context.Context, p Payload) (User, error) {
	if err := requireName(p, UserKind); err != nil {
		return User{}, wrapRequestError(err, "post user")
	}
	isAdmin, err := payloadBool(p, "isAdmin", false)
	if err != nil {
		return User{}, wrapRequestError(err, "post user")
	}
	hash, err := hashPassword(payloadString(p, "password"))
	if err != nil {
		return User{}, wrapRequestError(err, "post user")
	}
	photo, err := b.s.storePhoto(p.Attachment)
	if err != nil {
		return User{}, wrapRequestError(err, "post user")
	}
	id := uuid.NewString()
	_, err = b.s.addUserStmt.ExecContext(ctx, id,
		payloadString(p, "name"), payloadString(p, "dob"), payloadString(p, "email"), payloadString(p, "phone"),
		isAdmin, hash, photo.URL(), photo.PublicID)
	if err != nil {
		b.s.discardPhoto(photo)
		return User{}, wrapRequestError(err, "post user")
	}
	return b.get(ctx, id)
}

// Update changes the password only when the payload carries one.
func (b sandboxUsers) Update(ctx context.Context, id string, p Payload) (User, error) {
	if err := requireName(p, UserKind); err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	isAdmin, err := payloadBool(p, "isAdmin", false)
	if err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	tx, err := b.s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE users SET name=?, dob=?, email=?, phone=?, is_admin=? WHERE id=?`,
		payloadString(p, "name"), payloadString(p, "dob"), payloadString(p, "email"), payloadString(p, "phone"), isAdmin, id)
	if err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	if err := checkAffected(res, UserKind, id); err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	if password, ok := p.Get("password"); ok && password != "" {
		hash, err := hashPassword(password)
		if err != nil {
			return User{}, wrapRequestError(err, "put user")
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash=? WHERE id=?`, hash, id); err != nil {
			return User{}, wrapRequestError(err, "put user")
		}
	}
	stored, previous, err := b.s.updatePhoto(ctx, tx, "users", id, p.Attachment)
	if err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	if err := b.s.commitPhoto(tx, stored, previous); err != nil {
		return User{}, wrapRequestError(err, "put user")
	}
	return b.get(ctx, id)
}

func (b sandboxUsers) Delete(ctx context.Context, id string) error {
	res, err := b.s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return wrapRequestError(err, "delete user")
	}
	return wrapRequestError(checkAffected(res, UserKind, id), "delete user")
}

// VerifyPassword checks password against the stored hash of user id.
func (s *Sandbox) VerifyPassword(ctx context.Context, id, password string) error {
	var hash string
	if err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=?`, id).Scan(&hash); err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	if hash == "" {
		return fmt.Errorf("user %s has no password set", id)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Genres
// ---------------------------------------------------------------------------

// Genres returns the genre backend.
func (s *Sandbox) Genres() Backend[Genre] { return sandboxGenres{s} }

type sandboxGenres struct{ s *Sandbox }

func (b sandboxGenres) GetAll(ctx context.Context) ([]Genre, error) {
	rows, err := b.s.db.QueryContext(ctx, `SELECT id,name FROM genres ORDER BY name`)
	if err != nil {
		return nil, wrapRequestError(err, "load genres")
	}
	defer rows.Close()

	genres := []Genre{}
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, wrapRequestError(err, "load genres")
		}
		genres = append(genres, g)
	}
	return genres, wrapRequestError(rows.Err(), "load genres")
}

func (b sandboxGenres) Create(ctx context.Context, p Payload) (Genre, error) {
	if err := requireName(p, GenreKind); err != nil {
		return Genre{}, wrapRequestError(err, "post genre")
	}
	g := Genre{ID: uuid.NewString(), Name: payloadString(p, "name")}
	if _, err := b.s.db.ExecContext(ctx, `INSERT INTO genres(id,name) VALUES(?,?)`, g.ID, g.Name); err != nil {
		return Genre{}, wrapRequestError(err, "post genre")
	}
	return g, nil
}

func (b sandboxGenres) Update(ctx context.Context, id string, p Payload) (Genre, error) {
	if err := requireName(p, GenreKind); err != nil {
		return Genre{}, wrapRequestError(err, "put genre")
	}
	res, err := b.s.db.ExecContext(ctx, `UPDATE genres SET name=? WHERE id=?`, payloadString(p, "name"), id)
	if err != nil {
		return Genre{}, wrapRequestError(err, "put genre")
	}
	if err := checkAffected(res, GenreKind, id); err != nil {
		return Genre{}, wrapRequestError(err, "put genre")
	}
	return Genre{ID: id, Name: payloadString(p, "name")}, nil
}

func (b sandboxGenres) Delete(ctx context.Context, id string) error {
	res, err := b.s.db.ExecContext(ctx, `DELETE FROM genres WHERE id=?`, id)
	if err != nil {
		return wrapRequestError(err, "delete genre")
	}
	return wrapRequestError(checkAffected(res, GenreKind, id), "delete genre")
}
