package enums

type MemberStatus string

const (
	MemberStatusMember     MemberStatus = "member"
	MemberStatusLeft       MemberStatus = "left"
	MemberStatusRestricted MemberStatus = "restricted"
	MemberStatusBanned     MemberStatus = "banned"
)
