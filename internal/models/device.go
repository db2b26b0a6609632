package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// DeviceStatus enumerates operational states of a physical device.
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "Available"
	DeviceMaintenance DeviceStatus = "Maintenance"
	DeviceOffline     DeviceStatus = "Offline"
)

// Device is a physical lab device (network/optical equipment).
//
// MaintenanceStart/MaintenanceEnd are raw descriptors in the form
// "All Day/<YYYY-MM-DD>" or "<SegmentLabel>/<YYYY-MM-DD>"; the maintenance
// resolver turns them into absolute windows.
type Device struct {
	ID               int64        `db:"id" json:"id"`
	Type             string       `db:"device_type" json:"device_type"`
	Name             string       `db:"device_name" json:"device_name"`
	Status           DeviceStatus `db:"status" json:"status"`
	IPAddress        *string      `db:"ip_address" json:"ip_address,omitempty"`
	OutPort          *int         `db:"out_port" json:"out_port,omitempty"`
	InPort           *int         `db:"in_port" json:"in_port,omitempty"`
	MaintenanceStart *string      `db:"maintenance_start" json:"maintenance_start,omitempty"`
	MaintenanceEnd   *string      `db:"maintenance_end" json:"maintenance_end,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// DeviceFilter describes query params for listing devices.
type DeviceFilter struct {
	Type   string
	Status string
	Search string
}

// SortDevices orders devices by type, then by natural numeric ordering of the
// device name, so "ROADM-12-B" lands after "ROADM-2-A" instead of before it.
func SortDevices(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Type != devices[j].Type {
			return devices[i].Type < devices[j].Type
		}
		return NaturalLess(devices[i].Name, devices[j].Name)
	})
}

// NaturalLess compares two names treating embedded digit runs as numbers.
func NaturalLess(a, b string) bool {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if ta[i] == tb[i] {
			continue
		}
		if isDigits(ta[i]) && isDigits(tb[i]) {
			va, _ := strconv.Atoi(ta[i])
			vb, _ := strconv.Atoi(tb[i])
			if va != vb {
				return va < vb
			}
			continue
		}
		return ta[i] < tb[i]
	}
	return len(ta) < len(tb)
}

func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	var digits bool
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if i == 0 || isDigit == digits {
			current.WriteRune(r)
		} else {
			tokens = append(tokens, current.String())
			current.Reset()
			current.WriteRune(r)
		}
		digits = isDigit
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
