package models

// All returns every model managed by the application, in creation order.
func All() []interface{} {
	return []interface{}{
		&PermissionModel{},
		&PlanModel{},
		&SubscriptionModel{},
		&UsageCounterModel{},
	}
}
