package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// PhotoKind tags the shape a photo field arrived in.
type PhotoKind int

const (
	NoPhoto PhotoKind = iota
	RemoteURL
	UploadedObject
)

func (k PhotoKind) String() string {
	switch k {
	case RemoteURL:
		return "remote"
	case UploadedObject:
		return "uploaded"
	default:
		return "none"
	}
}

// brokenDemoPattern marks the stock placeholder image the backend used to
// seed records with; it never loads, so it counts as no photo.
const brokenDemoPattern = "res.cloudinary.com/demo/"

// Photo is the normalized form of the polymorphic photo field: absent, a
// plain URL string, or an uploaded object carrying a url member.
type Photo struct {
	Kind     PhotoKind
	Location string
	PublicID string
}

// RemotePhoto wraps a plain URL string.
func RemotePhoto(u string) Photo {
	if strings.TrimSpace(u) == "" {
		return Photo{}
	}
	return Photo{Kind: RemoteURL, Location: u}
}

// UploadedPhoto wraps the object form returned after an upload.
func UploadedPhoto(u, publicID string) Photo {
	if strings.TrimSpace(u) == "" {
		return Photo{}
	}
	return Photo{Kind: UploadedObject, Location: u, PublicID: publicID}
}

// URL returns the stored location, or "" for NoPhoto.
func (p Photo) URL() string {
	if p.Kind == NoPhoto {
		return ""
	}
	return p.Location
}

// Usable reports whether the photo points at something displayable. Only
// plain URL strings are checked against the demo placeholder; an uploaded
// object always shows its url.
func (p Photo) Usable() bool {
	switch p.Kind {
	case UploadedObject:
		return p.Location != ""
	case RemoteURL:
		return p.Location != "" && !strings.Contains(p.Location, brokenDemoPattern)
	default:
		return false
	}
}

func (p *Photo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Photo{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = RemotePhoto(s)
		return nil
	case '{':
		var obj struct {
			URL       string `json:"url"`
			SecureURL string `json:"secure_url"`
			PublicID  string `json:"public_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode photo: %w", err)
		}
		u := obj.URL
		if u == "" {
			u = obj.SecureURL
		}
		*p = UploadedPhoto(u, obj.PublicID)
		return nil
	}
	// Anything else (numbers, arrays, booleans) carries no usable url.
	*p = Photo{}
	return nil
}

func (p Photo) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case RemoteURL:
		return json.Marshal(p.Location)
	case UploadedObject:
		return json.Marshal(struct {
			URL      string `json:"url"`
			PublicID string `json:"public_id,omitempty"`
		}{p.Location, p.PublicID})
	default:
		return []byte("null"), nil
	}
}

// PhotoPolicy decides what to show when a record has no usable photo.
type PhotoPolicy struct {
	// Avatar selects a generated initials avatar; when false the fallback is
	// "no image".
	Avatar bool
	// Seed is used when the record's display name is empty.
	Seed string
}

var (
	AuthorPhotoPolicy = PhotoPolicy{Avatar: true, Seed: "Author"}
	UserPhotoPolicy   = PhotoPolicy{Avatar: true, Seed: "User"}
	BookPhotoPolicy   = PhotoPolicy{}
)

const avatarBaseURL = "https://api.dicebear.com/7.x/initials/svg"

// AvatarURL builds the deterministic initials avatar for name.
func AvatarURL(name string) string {
	return avatarBaseURL + "?seed=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// Resolve turns a photo into a display URL. preview, when non-empty, is the
// local preview of an attachment that has not been submitted yet and wins
// over everything else. ok is false when the policy yields no image.
func (pp PhotoPolicy) Resolve(photo Photo, name, preview string) (string, bool) {
	if preview != "" {
		return preview, true
	}
	if photo.Usable() {
		return photo.URL(), true
	}
	if !pp.Avatar {
		return "", false
	}
	seed := strings.TrimSpace(name)
	if seed == "" {
		seed = pp.Seed
	}
	return AvatarURL(seed), true
}
