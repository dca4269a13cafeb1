package store

// DynamoDB single-table key layout.
const (
	prefixMember = "MEMBER#"
	prefixEmail  = "EMAIL#"

	skProfile = "PROFILE"
	skEmail   = "EMAIL"
)

func memberPK(id string) string   { return prefixMember + id }
func emailPK(email string) string { return prefixEmail + NormalizeEmail(email) }
