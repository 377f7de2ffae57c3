package rules

import "github.com/ivankudzin/tgrelay/internal/domain/enums"

// MapMemberStatus maps a Telegram chat member status string onto the
// reconciled (role, status) pair. Returns false for statuses the relay
// does not understand.
//
//	creator       -> creator,       member
//	administrator -> administrator, member
//	member        -> member,        member
//	restricted    -> restricted,    restricted
//	left          -> left,          left
//	kicked        -> kicked,        banned
func MapMemberStatus(status string) (enums.Role, enums.MemberStatus, bool) {
	switch status {
	case "creator":
		return enums.RoleCreator, enums.MemberStatusMember, true
	case "administrator":
		return enums.RoleAdministrator, enums.MemberStatusMember, true
	case "member":
		return enums.RoleMember, enums.MemberStatusMember, true
	case "restricted":
		return enums.RoleRestricted, enums.MemberStatusRestricted, true
	case "left":
		return enums.RoleLeft, enums.MemberStatusLeft, true
	case "kicked":
		return enums.RoleKicked, enums.MemberStatusBanned, true
	default:
		return "", "", false
	}
}
