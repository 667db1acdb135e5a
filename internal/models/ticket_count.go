package models

// TypeCount is the number of tickets issued for one ticket type.
type TypeCount struct {
	TypeName string `bun:"type_name" json:"type_name"`
	Count    int    `bun:"count" json:"count"`
}

// RoleCount is the number of attendance events for one role.
type RoleCount struct {
	Role  string `bun:"role" json:"role"`
	Count int    `bun:"count" json:"count"`
}

// RoleDirectionCount splits a role's events by direction.
type RoleDirectionCount struct {
	Role      string    `bun:"role"`
	Direction Direction `bun:"direction"`
	Count     int       `bun:"count"`
}
