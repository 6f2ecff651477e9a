package room

import "strings"

// Role selects which of an instance's rooms a client joins.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// Name returns the room name for an instance and role,
// e.g. "viewer:inst-abc" or "admin:inst-abc".
func Name(role Role, instanceID string) string {
	return string(role) + ":" + instanceID
}

// Viewer returns the viewer room of an instance.
func Viewer(instanceID string) string { return Name(RoleViewer, instanceID) }

// Admin returns the admin room of an instance.
func Admin(instanceID string) string { return Name(RoleAdmin, instanceID) }

// Both returns the viewer and admin rooms of an instance.
func Both(instanceID string) []string {
	return []string{Viewer(instanceID), Admin(instanceID)}
}

// InstanceOf extracts the instance id from a room name.
func InstanceOf(room string) (string, bool) {
	_, instanceID, ok := strings.Cut(room, ":")
	return instanceID, ok && instanceID != ""
}
