package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is owned by the external authentication service; this backend only
// reads identities and maintains the list of rooms a user can access.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email"`
	Role      string               `bson:"role" json:"role"`
	Rooms     []primitive.ObjectID `bson:"rooms" json:"rooms"`
	CreatedAt time.Time            `bson:"createdAt" json:"created_at"`
}

// HasRoom reports whether the user already references the given room.
func (u *User) HasRoom(roomID primitive.ObjectID) bool {
	for _, id := range u.Rooms {
		if id == roomID {
			return true
		}
	}
	return false
}
