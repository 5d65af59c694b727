package authorize

type Action string
type Resource string
type Role string
type PolicyEffect string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionManage Action = "manage"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {},
	ActionList: {}, ActionManage: {},
}

const (
	WildcardResource Resource = "*"

	ResourceUser         Resource = "user"
	ResourceQuota        Resource = "quota"
	ResourceAvailability Resource = "availability"
	ResourceAppointment  Resource = "appointment"
	ResourceComment      Resource = "comment"
	ResourceFeedback     Resource = "feedback"
	ResourceProgram      Resource = "program"
	ResourceNotification Resource = "notification"
	ResourceCredential   Resource = "credential"
	ResourceSystem       Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceQuota: {}, ResourceAvailability: {},
	ResourceAppointment: {}, ResourceComment: {}, ResourceFeedback: {},
	ResourceProgram:      {},
	ResourceNotification: {}, ResourceCredential: {}, ResourceSystem: {},
}

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// PermissionPolicy is one `p` row: role, resource, action, effect.
type PermissionPolicy struct {
	Role     Role
	Resource Resource
	Action   Action
	Effect   PolicyEffect
}
