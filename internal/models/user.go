package models

import "time"

// User roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents a platform participant, usually a student earning points.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role          string    `gorm:"size:16;not null;default:student" json:"role"`
	School        string    `gorm:"size:255" json:"school"`
	Grade         int       `json:"grade"`
	Points        int       `gorm:"default:0" json:"points"`
	Streak        int       `gorm:"default:0" json:"streak"`
	MonthlyPoints int       `gorm:"default:0" json:"monthly_points"`
	LastActivity  time.Time `json:"last_activity"`
	ConsentGiven  bool      `gorm:"default:false" json:"consent_given"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsTeacher reports whether the user may create quests and review submissions.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
