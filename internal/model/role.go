package model

import "strings"

// Role names known to the backend. Which of them a given form accepts is
// decided by configuration, not by this list: the permitted set has changed
// between deployments (invitations accept "member", memberships do not).
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleMember = "member"
)

// RoleSet is a closed set of permitted role values. It carries no ordering
// or privilege hierarchy; authorization is enforced by the backend's row
// level policies.
type RoleSet []string

// DefaultInviteRoles is the role set accepted on invitations.
func DefaultInviteRoles() RoleSet {
	return RoleSet{RoleAdmin, RoleEditor, RoleViewer, RoleMember, RoleOwner}
}

// DefaultMemberRoles is the narrower role set a membership may carry.
func DefaultMemberRoles() RoleSet {
	return RoleSet{RoleAdmin, RoleEditor, RoleViewer, RoleOwner}
}

// Contains reports whether role is a member of the set.
func (s RoleSet) Contains(role string) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// String renders the set for error messages, e.g. "admin|editor|viewer".
func (s RoleSet) String() string {
	return strings.Join(s, "|")
}
