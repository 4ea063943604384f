package domain

// Realtime room names. Clients are placed in rooms by the server from their
// authenticated session and can never choose them.

func UserRoom(userID string) string { return "user:" + userID }

func TenantRoom(tenantID string) string { return "tenant:" + tenantID }

func BranchRoom(tenantID, branchID string) string { return "branch:" + tenantID + ":" + branchID }

// SessionRooms lists the rooms a client with sess joins.
func SessionRooms(sess SessionContext) []string {
	rooms := []string{UserRoom(sess.UserID)}
	if sess.TenantID != "" {
		rooms = append(rooms, TenantRoom(sess.TenantID))
		if sess.BranchID != "" {
			rooms = append(rooms, BranchRoom(sess.TenantID, sess.BranchID))
		}
	}
	return rooms
}

// Realtime event names.
const (
	EventIncomingCall = "incoming_call"
	EventConnected    = "connected"
)
