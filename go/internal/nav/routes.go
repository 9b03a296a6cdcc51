package nav

import (
	"net/url"
	"strings"
)

// Route is a navigable screen
type Route struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Label  string `json:"label,omitempty"`
	Public bool   `json:"public"`
	InMenu bool   `json:"in_menu"`
}

const (
	Splash        = "splash-screen"
	Auth          = "user-authentication"
	Dashboard     = "main-dashboard"
	FocusModes    = "focus-modes"
	Tracking      = "distraction-tracking"
	Rewards       = "rewards-and-achievements"
	Notifications = "notification-management"
	Subscription  = "subscription-management"
	NotFound      = "not-found"
)

var routes = []Route{
	{Name: Splash, Path: "/", Public: true},
	{Name: Splash, Path: "/splash-screen", Public: true},
	{Name: Auth, Path: "/user-authentication", Public: true},
	{Name: Dashboard, Path: "/main-dashboard", Label: "Dashboard", InMenu: true},
	{Name: FocusModes, Path: "/focus-modes", Label: "Focus", InMenu: true},
	{Name: Tracking, Path: "/distraction-tracking", Label: "Tracking", InMenu: true},
	{Name: Rewards, Path: "/rewards-and-achievements", Label: "Rewards", InMenu: true},
	{Name: Notifications, Path: "/notification-management", Label: "Notifications", InMenu: true},
	{Name: Subscription, Path: "/subscription-management", Label: "Subscription", InMenu: true},
}

var notFound = Route{Name: NotFound, Path: "*"}

// Routes returns every known route.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Menu returns the routes shown in the main navigation, in order.
func Menu() []Route {
	var menu []Route
	for _, r := range routes {
		if r.InMenu {
			menu = append(menu, r)
		}
	}
	return menu
}

// Lookup finds the route for path. Query strings and a trailing slash are ignored.
func Lookup(path string) (Route, bool) {
	p := normalize(path)
	for _, r := range routes {
		if r.Path == p {
			return r, true
		}
	}
	return Route{}, false
}

func normalize(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// Resolution is the screen to show for a requested path
type Resolution struct {
	Route    Route  `json:"route"`
	Redirect bool   `json:"redirect"`
	From     string `json:"from,omitempty"`
}

// Resolve applies the authentication gate to path. Signed-out users asking for a
// private screen go to authentication, remembering where they came from; signed-in
// users asking for a public screen go to from when it names a private screen, else
// to the dashboard. Unknown paths render not-found for everyone.
func Resolve(path string, authenticated bool, from string) Resolution {
	r, ok := Lookup(path)
	if !ok {
		return Resolution{Route: notFound}
	}

	switch {
	case !authenticated && !r.Public:
		auth, _ := Lookup("/user-authentication")
		return Resolution{Route: auth, Redirect: true, From: r.Path}
	case authenticated && r.Public:
		if target, ok := Lookup(from); ok && !target.Public {
			return Resolution{Route: target, Redirect: true}
		}
		dash, _ := Lookup("/main-dashboard")
		return Resolution{Route: dash, Redirect: true}
	}
	return Resolution{Route: r}
}
