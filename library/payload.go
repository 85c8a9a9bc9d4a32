package library

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PhotoFieldName is the multipart field that carries the binary photo.
const PhotoFieldName = "photoUrl"

// maxAttachmentSize bounds what a form will accept from disk.
const maxAttachmentSize = 10 << 20

// FormField is one scalar multipart field.
type FormField struct {
	Name  string
	Value string
}

// BoolField serializes b as the literal "true" or "false".
func BoolField(name string, b bool) FormField {
	return FormField{Name: name, Value: strconv.FormatBool(b)}
}

// Attachment is a locally selected file that has not been submitted yet.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// LoadAttachment reads the image at path. Only jpeg and png files are accepted.
func LoadAttachment(path string) (*Attachment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAttachment(filepath.Base(path), f)
}

// ReadAttachment builds an attachment from r, sniffing its content type.
func ReadAttachment(filename string, r io.Reader) (*Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxAttachmentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAttachmentSize {
		return nil, attachmentError(fmt.Errorf("%w: %s is larger than %d bytes", ErrUnsupportedAttachment, filename, maxAttachmentSize))
	}
	ctype := http.DetectContentType(data)
	if !allowedImageTypes[ctype] {
		return nil, attachmentError(fmt.Errorf("%w: %s is %s", ErrUnsupportedAttachment, filename, ctype))
	}
	return &Attachment{Filename: filename, ContentType: ctype, Data: data}, nil
}

// PreviewURL returns a data URL suitable for showing the image before upload.
func (a *Attachment) PreviewURL() string {
	if a == nil || len(a.Data) == 0 {
		return ""
	}
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Payload is a draft packaged for create or update. A nil Attachment means
// the photo field is omitted entirely.
type Payload struct {
	Fields     []FormField
	Attachment *Attachment
}

// Get returns the value of the first field called name.
func (p Payload) Get(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Encode writes the payload as multipart/form-data and returns the body and
// its content type.
func (p Payload) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range p.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	if a := p.Attachment; a != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, PhotoFieldName, a.Filename))
		h.Set("Content-Type", a.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create photo part: %w", err)
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", fmt.Errorf("write photo part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// describe lists field names and the attachment for debug logs. Values are
// left out because they may contain passwords.
func (p Payload) describe() map[string]any {
	names := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		names = append(names, f.Name)
	}
	out := map[string]any{"fields": strings.Join(names, ",")}
	if p.Attachment != nil {
		out["attachment"] = p.Attachment.Filename
		out["attachment_bytes"] = len(p.Attachment.Data)
	}
	return out
}
