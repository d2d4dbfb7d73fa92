package models

import (
	"time"
)

// Folder is a registry entry correlated with notes through hashtag name
// matching. Folder names are unique case-insensitively. Auto-generated
// folders are deleted once no note's hashtag set contains their name;
// manually created folders are exempt from automatic cleanup.
type Folder struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IsAutoGenerated bool      `json:"is_auto_generated"`
	CreatedAt       time.Time `json:"created_at"`
}
