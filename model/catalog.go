package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Category is a node in the catalog tree. ParentID is NULL for roots.
type Category struct {
	ID          int64
	ParentID    sql.NullInt64
	Title       string
	Description string
	Avatar      sql.NullString // object storage key
	IsEnable    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// categoryJSON is the wire form of Category; the null columns flatten to
// nullable JSON fields instead of the sql.Null* envelope.
type categoryJSON struct {
	ID          int64     `json:"id"`
	ParentID    *int64    `json:"parentId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Avatar      *string   `json:"avatar"`
	IsEnable    bool      `json:"isEnable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c Category) MarshalJSON() ([]byte, error) {
	out := categoryJSON{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		IsEnable:    c.IsEnable,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.ParentID.Valid {
		out.ParentID = &c.ParentID.Int64
	}
	if c.Avatar.Valid {
		out.Avatar = &c.Avatar.String
	}
	return json.Marshal(out)
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var in categoryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.ID = in.ID
	c.Title = in.Title
	c.Description = in.Description
	c.IsEnable = in.IsEnable
	c.CreatedAt = in.CreatedAt
	c.UpdatedAt = in.UpdatedAt
	if in.ParentID != nil {
		c.ParentID = sql.NullInt64{Int64: *in.ParentID, Valid: true}
	} else {
		c.ParentID = sql.NullInt64{}
	}
	if in.Avatar != nil {
		c.Avatar = sql.NullString{String: *in.Avatar, Valid: true}
	} else {
		c.Avatar = sql.NullString{}
	}
	return nil
}

// Product is a purchasable digital product. Categories and Files are
// loaded by the repository when requested; they are not always populated.
type Product struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	IsEnable   bool       `json:"isEnable"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Categories []Category `json:"categories,omitempty"`
	Files      []File     `json:"files,omitempty"`
}

// FileType enumerates the kinds of assets attached to a product.
type FileType int

const (
	FileAudio    FileType = 1
	FileVideo    FileType = 2
	FileDocument FileType = 3
)

// String returns the wire name of the file type.
func (t FileType) String() string {
	switch t {
	case FileAudio:
		return "audio"
	case FileVideo:
		return "video"
	default:
		return "document"
	}
}

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	return t >= FileAudio && t <= FileDocument
}

// File is a downloadable asset belonging to a product. FilePath is the
// object storage key of the uploaded binary.
type File struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	Title     string    `json:"title"`
	FileType  FileType  `json:"fileType"`
	FilePath  string    `json:"file"`
	IsEnable  bool      `json:"isEnable"`
	CreatedAt time.Time `json:"createdAt"`
}
