package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionQuestionsRead allows listing and viewing questions and voting on them.
	PermissionQuestionsRead Permission = "questions:read"

	// PermissionQuestionsWrite allows authoring new questions.
	PermissionQuestionsWrite Permission = "questions:write"

	// PermissionQuestionsModerate allows editing or deleting any question and changing its status.
	PermissionQuestionsModerate Permission = "questions:moderate"

	// PermissionQuestionsReview allows invalidating questions for quality control.
	PermissionQuestionsReview Permission = "questions:review"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionQuestionsRead, PermissionQuestionsWrite,
		PermissionQuestionsModerate, PermissionQuestionsReview,
	},
	RoleCompanyAdmin: {
		PermissionQuestionsRead, PermissionQuestionsWrite,
		PermissionQuestionsModerate, PermissionQuestionsReview,
	},
	RoleQuestionWriter: {PermissionQuestionsRead, PermissionQuestionsWrite},
	RoleReviewer:       {PermissionQuestionsRead, PermissionQuestionsReview},
}

// Permissions returns the permission codes granted to r.
func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

// Has reports whether r grants p.
func (r Role) Has(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
