package models

type Stats struct {
	TotalTasks     int                `json:"total_tasks"`
	TotalProjects  int                `json:"total_projects"`
	TotalUsers     int                `json:"total_users"`
	ByStatus       map[TaskStatus]int `json:"by_status"`
	RecentActivity []*Task            `json:"recent_activity"`
}
