package model

import "time"

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectStats struct {
	ProjectID int64              `json:"project_id"`
	ByStatus  map[TaskStatus]int `json:"by_status"`
	Total     int                `json:"total"`
}
