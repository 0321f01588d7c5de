// Package routes holds the navigation surface of the client: the route table,
// the guard that gates protected views, and the navigator that tracks the
// current location.
package routes

import "strings"

// Access is the requirement a route places on the session
type Access int

const (
	Public Access = iota
	UserOnly
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case UserOnly:
		return "user"
	case AdminOnly:
		return "admin"
	default:
		return "public"
	}
}

// Route is one view of the application
type Route struct {
	Path   string
	Title  string
	Access Access
}

// Paths of every view
const (
	Home              = "/"
	Login             = "/login"
	Signup            = "/signup"
	Plans             = "/plans"
	Dashboard         = "/dashboard"
	Recharge          = "/recharge"
	History           = "/history"
	Profile           = "/profile"
	AdminDashboard    = "/admin/dashboard"
	AdminPlans        = "/admin/plans"
	AdminUsers        = "/admin/users"
	AdminTransactions = "/admin/transactions"
)

var table = []Route{
	{Path: Home, Title: "Home", Access: Public},
	{Path: Login, Title: "Login", Access: Public},
	{Path: Signup, Title: "Sign up", Access: Public},
	{Path: Plans, Title: "Plans", Access: Public},

	{Path: Dashboard, Title: "Dashboard", Access: UserOnly},
	{Path: Recharge, Title: "Recharge", Access: UserOnly},
	{Path: History, Title: "History", Access: UserOnly},
	{Path: Profile, Title: "Profile", Access: UserOnly},

	{Path: AdminDashboard, Title: "Admin dashboard", Access: AdminOnly},
	{Path: AdminPlans, Title: "Manage plans", Access: AdminOnly},
	{Path: AdminUsers, Title: "Manage users", Access: AdminOnly},
	{Path: AdminTransactions, Title: "Transactions", Access: AdminOnly},
}

// All returns a copy of the route table
func All() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Lookup finds the route registered for path
func Lookup(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve returns the route for path. Unmatched paths resolve to Home.
func Resolve(path string) Route {
	if r, ok := Lookup(path); ok {
		return r
	}
	r, _ := Lookup(Home)
	return r
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return Home
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
