package domain

import "strings"

// MemberStatus описывает статус участника чата.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// ParseMemberStatus приводит строку Telegram к MemberStatus. Неизвестные значения дают member.
func ParseMemberStatus(raw string) MemberStatus {
	switch s := MemberStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted, StatusLeft, StatusKicked:
		return s
	default:
		return StatusMember
	}
}

// Present сообщает, находится ли пользователь в чате.
func (s MemberStatus) Present() bool {
	switch s {
	case StatusLeft, StatusKicked:
		return false
	default:
		return true
	}
}

// Privileged сообщает, является ли статус администраторским.
func (s MemberStatus) Privileged() bool {
	return s == StatusCreator || s == StatusAdministrator
}
