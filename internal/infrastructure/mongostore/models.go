package mongostore

import "time"

type permissionDoc struct {
	Name        string    `bson:"_id"`
	Endpoint    string    `bson:"endpoint"`
	Description string    `bson:"description"`
	CreatedBy   string    `bson:"created_by"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type planDoc struct {
	Name        string    `bson:"_id"`
	Description string    `bson:"description"`
	Permissions []string  `bson:"permissions"`
	CallLimit   int64     `bson:"call_limit"`
	IsActive    bool      `bson:"is_active"`
	CreatedBy   string    `bson:"created_by"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type subscriptionDoc struct {
	UserID            string     `bson:"_id"`
	Username          string     `bson:"username"`
	IsAdmin           bool       `bson:"is_admin"`
	PlanName          string     `bson:"plan_name,omitempty"`
	SubscriptionStart *time.Time `bson:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `bson:"subscription_end,omitempty"`
	CreatedAt         time.Time  `bson:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

type usageCounterDoc struct {
	UserID      string    `bson:"user_id"`
	Endpoint    string    `bson:"endpoint"`
	Count       int64     `bson:"count"`
	LastUpdated time.Time `bson:"last_updated"`
}
