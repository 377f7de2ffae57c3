package enums

// Role mirrors the member role tracked per chat. Values follow the
// Telegram chat member statuses so reconciled rows stay comparable
// with raw payloads.
type Role string

const (
	RoleCreator       Role = "creator"
	RoleAdministrator Role = "administrator"
	RoleMember        Role = "member"
	RoleRestricted    Role = "restricted"
	RoleLeft          Role = "left"
	RoleKicked        Role = "kicked"
)
