package auth

// Permission names a single (resource, action) pair. The table below is
// static for the life of the process; checks are linear scans over lists of
// at most a couple dozen entries, which needs no caching.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

var (
	PermUsersView   = Permission{"users", "view"}
	PermUsersCreate = Permission{"users", "create"}
	PermUsersUpdate = Permission{"users", "update"}
	PermUsersDelete = Permission{"users", "delete"}

	PermCovidPeopleView   = Permission{"covid_people", "view"}
	PermCovidPeopleCreate = Permission{"covid_people", "create"}
	PermCovidPeopleUpdate = Permission{"covid_people", "update"}
	PermCovidPeopleDelete = Permission{"covid_people", "delete"}

	PermProductsView   = Permission{"products", "view"}
	PermProductsCreate = Permission{"products", "create"}
	PermProductsUpdate = Permission{"products", "update"}
	PermProductsDelete = Permission{"products", "delete"}

	PermPackagesView   = Permission{"packages", "view"}
	PermPackagesCreate = Permission{"packages", "create"}
	PermPackagesUpdate = Permission{"packages", "update"}
	PermPackagesDelete = Permission{"packages", "delete"}

	PermOrdersView   = Permission{"orders", "view"}
	PermOrdersCreate = Permission{"orders", "create"}
	PermOrdersUpdate = Permission{"orders", "update"}
	PermOrdersDelete = Permission{"orders", "delete"}

	PermPaymentsView   = Permission{"payments", "view"}
	PermPaymentsCreate = Permission{"payments", "create"}
	PermPaymentsUpdate = Permission{"payments", "update"}

	PermStatisticsView = Permission{"statistics", "view"}
	PermReportsView    = Permission{"reports", "view"}
	PermReportsExport  = Permission{"reports", "export"}

	PermSettingsView   = Permission{"settings", "view"}
	PermSettingsUpdate = Permission{"settings", "update"}

	PermLocationsView   = Permission{"locations", "view"}
	PermLocationsCreate = Permission{"locations", "create"}
	PermLocationsUpdate = Permission{"locations", "update"}
	PermLocationsDelete = Permission{"locations", "delete"}
)

var allPermissions = []Permission{
	PermUsersView, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
	PermCovidPeopleView, PermCovidPeopleCreate, PermCovidPeopleUpdate, PermCovidPeopleDelete,
	PermProductsView, PermProductsCreate, PermProductsUpdate, PermProductsDelete,
	PermPackagesView, PermPackagesCreate, PermPackagesUpdate, PermPackagesDelete,
	PermOrdersView, PermOrdersCreate, PermOrdersUpdate, PermOrdersDelete,
	PermPaymentsView, PermPaymentsCreate, PermPaymentsUpdate,
	PermStatisticsView, PermReportsView, PermReportsExport,
	PermSettingsView, PermSettingsUpdate,
	PermLocationsView, PermLocationsCreate, PermLocationsUpdate, PermLocationsDelete,
}

var rolePermissions = map[string][]Permission{
	RoleAdmin: allPermissions,
	RoleManager: {
		PermCovidPeopleView, PermCovidPeopleCreate, PermCovidPeopleUpdate,
		PermProductsView, PermProductsCreate, PermProductsUpdate, PermProductsDelete,
		PermPackagesView, PermPackagesCreate, PermPackagesUpdate, PermPackagesDelete,
		PermOrdersView, PermOrdersUpdate,
		PermPaymentsView,
		PermStatisticsView, PermReportsView, PermReportsExport,
		PermLocationsView,
	},
	RoleUser: {
		PermPackagesView,
		PermOrdersView, PermOrdersCreate,
		PermPaymentsView, PermPaymentsCreate,
	},
}

func HasPermission(role string, p Permission) bool {
	for _, have := range rolePermissions[role] {
		if have == p {
			return true
		}
	}
	return false
}

func HasAllPermissions(role string, perms []Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

func HasAnyPermission(role string, perms []Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

func RolePermissions(role string) []Permission {
	return rolePermissions[role]
}
