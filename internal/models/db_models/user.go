package db_models

import "github.com/google/uuid"

// User is the identity record. Roles are additive side tables: a user may be
// a student, a staff member and an admin at the same time.
type User struct {
	BaseModel
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	FirstName    string  `gorm:"not null" json:"first_name"`
	LastName     string  `gorm:"not null" json:"last_name"`
	Phone        *string `json:"phone,omitempty"`

	Student        *Student            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Staff          *Staff              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"staff,omitempty"`
	Admin          *Admin              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
	FavoriteRoutes []UserFavoriteRoute `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Admin marks a user as administrator. ManagedByID points at another admin.
type Admin struct {
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ManagedByID *uuid.UUID `gorm:"type:uuid;index" json:"managed_by_id,omitempty"`
	CreatedAt   int64      `gorm:"autoCreateTime" json:"created_at"`

	ManagedStudents []Student `gorm:"foreignKey:ManagedByID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
	ManagedStaff    []Staff   `gorm:"foreignKey:ManagedByID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

type Student struct {
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ManagedByID *uuid.UUID `gorm:"type:uuid;index" json:"managed_by_id,omitempty"`
	CreatedAt   int64      `gorm:"autoCreateTime" json:"created_at"`

	DigitalCard  *DigitalCard  `gorm:"foreignKey:StudentID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:StudentID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type Staff struct {
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ManagedByID *uuid.UUID `gorm:"type:uuid;index" json:"managed_by_id,omitempty"`
	CreatedAt   int64      `gorm:"autoCreateTime" json:"created_at"`

	Appointments []Appointment `gorm:"foreignKey:StaffID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Menus        []Menu        `gorm:"foreignKey:StaffID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
	IssuedCards  []DigitalCard `gorm:"foreignKey:IssuedByStaffID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Staff) TableName() string { return "staff" }
