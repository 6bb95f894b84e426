package domain

// User chat-side profile document. Credentials live in the account service;
// this document only carries what other chat members are allowed to see.
type User struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	ProfileImage string `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	CreatedAt    int64  `bson:"created_at,omitempty" json:"createdAt,omitempty"`
}
