package schedule

import (
	"sort"
	"strings"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
)

// ListRoutes filters the full route set to one transportation type,
// excluding route_ids the caller has already configured, and sorts the
// result for display. The ordering is deterministic for identical inputs.
func ListRoutes(routes []metlink.Route, routeType int, exclude map[string]struct{}) []metlink.Route {
	var out []metlink.Route
	for _, r := range routes {
		if r.RouteType != routeType {
			continue
		}
		if _, configured := exclude[r.RouteID.String()]; configured {
			continue
		}
		out = append(out, r)
	}
	SortRoutes(out)
	return out
}

// SortRoutes orders routes by their short name: names with a leading run
// of digits sort numerically first (ties broken by the trailing suffix,
// case-insensitively), then purely alphabetic names lexicographically.
func SortRoutes(routes []metlink.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return lessRouteName(routes[i].RouteShortName, routes[j].RouteShortName)
	})
}

func lessRouteName(a, b string) bool {
	aNum, aSuffix, aOK := splitLeadingNumber(a)
	bNum, bSuffix, bOK := splitLeadingNumber(b)
	switch {
	case aOK && !bOK:
		return true
	case !aOK && bOK:
		return false
	case aOK && bOK:
		if aNum != bNum {
			return aNum < bNum
		}
		return strings.ToLower(aSuffix) < strings.ToLower(bSuffix)
	default:
		return strings.ToLower(a) < strings.ToLower(b)
	}
}

// splitLeadingNumber parses the leading digit run of a route short name.
// ok is false when the name has no numeric prefix.
func splitLeadingNumber(name string) (n int, suffix string, ok bool) {
	name = strings.TrimSpace(name)
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		n = n*10 + int(name[i]-'0')
		i++
	}
	if i == 0 {
		return 0, name, false
	}
	return n, name[i:], true
}

// AvailableTransportTypes reports, for each transportation type, how many
// routes remain unconfigured. Types with no available routes are omitted.
func AvailableTransportTypes(routes []metlink.Route, exclude map[string]struct{}) map[int]int {
	counts := make(map[int]int)
	for _, r := range routes {
		if _, configured := exclude[r.RouteID.String()]; configured {
			continue
		}
		counts[r.RouteType]++
	}
	return counts
}

// DirectionLabel names one direction of a route. Direction 0 reads the
// route_long_name as-is; direction 1 reverses it around its " - "
// separators, so "Wellington - Masterton" becomes "Masterton - Wellington".
func DirectionLabel(route metlink.Route, directionID int) string {
	if directionID == 0 {
		return route.RouteLongName
	}
	parts := strings.Split(route.RouteLongName, " - ")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " - ")
}
