package models

import "time"

type Node struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	ParentID       *string    `json:"parent_id"`
	Name           string     `json:"name"`
	IsFolder       bool       `json:"is_folder"`
	OssPath        *string    `json:"oss_path,omitempty"`
	SizeBytes      *int64     `json:"size_bytes"`
	FileSuffix     *string    `json:"file_suffix,omitempty"`
	OnlineEditable bool       `json:"online_editable"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Content przechowuje treść pliku edytowalnego online. Rekord dzieli ID z
// węzłem i żyje dokładnie tak długo jak on.
type Content struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Body       string     `json:"content"`
	FileSuffix *string    `json:"file_suffix,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// PathEntry to jeden element łańcucha przodków, od korzenia do węzła.
type PathEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}
