package models

import (
	"time"

	"github.com/uptrace/bun"
)

const SettingCurrentEventDay = "current_event_day"

type Setting struct {
	bun.BaseModel `bun:"table:settings"`

	Key       string    `bun:"key,pk" json:"key"`
	Value     string    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
