package domain

import "testing"

func TestParseMemberStatus(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       MemberStatus
		present    bool
		privileged bool
	}{
		{name: "creator", raw: "creator", want: StatusCreator, present: true, privileged: true},
		{name: "administrator upper", raw: " Administrator ", want: StatusAdministrator, present: true, privileged: true},
		{name: "member", raw: "member", want: StatusMember, present: true},
		{name: "restricted", raw: "restricted", want: StatusRestricted, present: true},
		{name: "left", raw: "left", want: StatusLeft},
		{name: "kicked", raw: "kicked", want: StatusKicked},
		{name: "unknown falls back to member", raw: "ghost", want: StatusMember, present: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMemberStatus(tt.raw)
			if got != tt.want {
				t.Fatalf("ParseMemberStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got.Present() != tt.present {
				t.Fatalf("%v.Present() = %v, want %v", got, got.Present(), tt.present)
			}
			if got.Privileged() != tt.privileged {
				t.Fatalf("%v.Privileged() = %v, want %v", got, got.Privileged(), tt.privileged)
			}
		})
	}
}
