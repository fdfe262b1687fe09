package models

type AssigneeKind string

const (
	AssigneeKindUser  AssigneeKind = "user"  // Value holds a platform user id
	AssigneeKindEmail AssigneeKind = "email" // Value holds an email address
)

func (k AssigneeKind) Valid() bool {
	return k == AssigneeKindUser || k == AssigneeKindEmail
}

// Assignee identifies who a form field is assigned to.
// The two variants are kept as separate columns (assigned_kind, assigned_to)
// so a raw email never doubles as a user id.
type Assignee struct {
	Kind  AssigneeKind `json:"kind"`
	Value string       `json:"value"`
}

func UserAssignee(userID string) Assignee {
	return Assignee{Kind: AssigneeKindUser, Value: userID}
}

func EmailAssignee(email string) Assignee {
	return Assignee{Kind: AssigneeKindEmail, Value: email}
}
