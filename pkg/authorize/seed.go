package authorize

import (
	"context"
	"log/slog"
)

// SeedDefaultPolicies installs the baseline RBAC policies. Idempotent:
// casbin ignores duplicate rows.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	policies := []PermissionPolicy{
		// Admin: everything.
		{RoleAdmin, WildcardResource, WildcardAction, EffectAllow},

		// Mentor: owns availability and quota settings, works appointments.
		{RoleMentor, ResourceAvailability, ActionManage, EffectAllow},
		{RoleMentor, ResourceQuota, ActionManage, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionRead, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionList, EffectAllow},
		{RoleMentor, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleMentor, ResourceComment, ActionCreate, EffectAllow},
		{RoleMentor, ResourceComment, ActionRead, EffectAllow},
		{RoleMentor, ResourceFeedback, ActionCreate, EffectAllow},
		{RoleMentor, ResourceFeedback, ActionRead, EffectAllow},
		{RoleMentor, ResourceCredential, ActionManage, EffectAllow},
		{RoleMentor, ResourceUser, ActionRead, EffectAllow},
		{RoleMentor, ResourceUser, ActionUpdate, EffectAllow},
		{RoleMentor, ResourceNotification, ActionRead, EffectAllow},

		// Student: books and cancels appointments, reads availability.
		{RoleStudent, ResourceAvailability, ActionRead, EffectAllow},
		{RoleStudent, ResourceAvailability, ActionList, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionRead, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionList, EffectAllow},
		{RoleStudent, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleStudent, ResourceComment, ActionCreate, EffectAllow},
		{RoleStudent, ResourceComment, ActionRead, EffectAllow},
		{RoleStudent, ResourceFeedback, ActionCreate, EffectAllow},
		{RoleStudent, ResourceFeedback, ActionRead, EffectAllow},
		{RoleStudent, ResourceCredential, ActionManage, EffectAllow},
		{RoleStudent, ResourceUser, ActionRead, EffectAllow},
		{RoleStudent, ResourceUser, ActionUpdate, EffectAllow},
		{RoleStudent, ResourceNotification, ActionRead, EffectAllow},
	}

	for _, p := range policies {
		if _, err := auth.AddPermission(ctx, p); err != nil {
			return err
		}
	}

	if err := auth.Raw().SavePolicy(); err != nil {
		return err
	}

	slog.Info("authorization policies seeded", "count", len(policies))
	return nil
}
