package roles

import "fmt"

// Role is the enumerated account role. It replaces ad-hoc string
// comparisons in handlers: permission checks go through Can.
type Role string

const (
	Admin    Role = "admin"
	SubAdmin Role = "subAdmin"
	User     Role = "user"
)

// Capability names a permission a role may hold.
type Capability string

const (
	ManageUsers         Capability = "manage_users"          // list, soft-delete, restore regular users
	ManageSubAdmins     Capability = "manage_sub_admins"     // create/list/delete sub-admin accounts
	PurgeUsers          Capability = "purge_users"           // permanently delete accounts
	ModerateItems       Capability = "moderate_items"        // approve or reject listed items
	ManageCategories    Capability = "manage_categories"     // create/update/delete categories
	HandleVerifications Capability = "handle_verifications"  // decide profile verification requests
	ViewAllOffers       Capability = "view_all_offers"       // list offers across all users
	SendNotifications   Capability = "send_notifications"    // push a stored notification to any user
)

var grants = map[Role]map[Capability]struct{}{
	Admin: {
		ManageUsers:         {},
		ManageSubAdmins:     {},
		PurgeUsers:          {},
		ModerateItems:       {},
		ManageCategories:    {},
		HandleVerifications: {},
		ViewAllOffers:       {},
		SendNotifications:   {},
	},
	SubAdmin: {
		ManageUsers:         {},
		ModerateItems:       {},
		ManageCategories:    {},
		HandleVerifications: {},
		ViewAllOffers:       {},
		SendNotifications:   {},
	},
	User: {},
}

// Parse validates a stored role string.
func Parse(s string) (Role, error) {
	switch Role(s) {
	case Admin, SubAdmin, User:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Can reports whether the role holds the capability. Unknown roles hold
// nothing.
func (r Role) Can(c Capability) bool {
	caps, ok := grants[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}
