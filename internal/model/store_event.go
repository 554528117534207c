package model

import "time"

// StoreEvent records which backend handled a referral store operation.
type StoreEvent struct {
	Op      StoreOp     `json:"op"`
	Slug    string      `json:"slug"`
	Backend Backend     `json:"backend"`
	Result  StoreResult `json:"result"`
	Error   string      `json:"error,omitempty"`
	At      time.Time   `json:"at"`
}
