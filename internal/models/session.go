package models

import "time"

// OverrideRecord is an audit entry for a manual candidate substitution made
// during a planning session.
type OverrideRecord struct {
	MappingID     string    `json:"mapping_id"`
	LogicalNodeID string    `json:"logical_node_id"`
	DeviceID      int64     `json:"device_id"`
	DeviceName    string    `json:"device_name"`
	OverriddenAt  time.Time `json:"overridden_at"`
}
