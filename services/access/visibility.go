package access

import "strings"

type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityOrganization Visibility = "organization"
	VisibilityPrivate      Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityOrganization, VisibilityPrivate:
		return true
	}
	return false
}

type Viewer struct {
	UserID       string
	Organization string
}

type ProjectAccess struct {
	OwnerID              string
	OwnerOrganization    string
	Visibility           Visibility
	AllowedOrganizations []string
}

// CanViewProject applies the visibility rules of a project. Owners always see
// their own projects. Organization projects without an explicit list are
// shared with the owner's organization.
func CanViewProject(viewer Viewer, p ProjectAccess) bool {
	if viewer.UserID != "" && viewer.UserID == p.OwnerID {
		return true
	}

	switch p.Visibility {
	case VisibilityPublic, "":
		return true
	case VisibilityOrganization:
		org := strings.TrimSpace(viewer.Organization)
		if org == "" {
			return false
		}
		allowed := p.AllowedOrganizations
		if len(allowed) == 0 {
			allowed = []string{p.OwnerOrganization}
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), org) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
