package schedule

import (
	"reflect"
	"testing"

	"github.com/iamawumpas/Metlink-Explorer/metlink"
)

func routesNamed(names ...string) []metlink.Route {
	routes := make([]metlink.Route, len(names))
	for i, n := range names {
		routes[i] = metlink.Route{RouteID: metlink.FlexID(n), RouteShortName: n, RouteType: metlink.RouteTypeBus}
	}
	return routes
}

func shortNames(routes []metlink.Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.RouteShortName
	}
	return out
}

func TestSortRoutesMixedAlphanumeric(t *testing.T) {
	routes := routesNamed("83", "1", "AX", "31x", "2")
	SortRoutes(routes)
	want := []string{"1", "2", "31x", "83", "AX"}
	if got := shortNames(routes); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortRoutesNumericSuffixTieBreak(t *testing.T) {
	routes := routesNamed("2e", "2", "2A", "14", "2b")
	SortRoutes(routes)
	want := []string{"2", "2A", "2b", "2e", "14"}
	if got := shortNames(routes); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortRoutesDeterministic(t *testing.T) {
	a := routesNamed("83", "1", "AX", "31x", "2")
	b := routesNamed("83", "1", "AX", "31x", "2")
	SortRoutes(a)
	SortRoutes(b)
	if !reflect.DeepEqual(shortNames(a), shortNames(b)) {
		t.Error("identical inputs must sort identically")
	}
}

func TestListRoutesFiltersTypeAndExclusions(t *testing.T) {
	routes := []metlink.Route{
		{RouteID: "1", RouteShortName: "HVL", RouteType: metlink.RouteTypeTrain},
		{RouteID: "2", RouteShortName: "83", RouteType: metlink.RouteTypeBus},
		{RouteID: "3", RouteShortName: "1", RouteType: metlink.RouteTypeBus},
		{RouteID: "4", RouteShortName: "WHF", RouteType: metlink.RouteTypeFerry},
	}
	exclude := map[string]struct{}{"2": {}}

	got := ListRoutes(routes, metlink.RouteTypeBus, exclude)
	if len(got) != 1 || got[0].RouteID != "3" {
		t.Errorf("expected only route 3, got %+v", got)
	}
}

func TestAvailableTransportTypes(t *testing.T) {
	routes := []metlink.Route{
		{RouteID: "1", RouteType: metlink.RouteTypeTrain},
		{RouteID: "2", RouteType: metlink.RouteTypeBus},
		{RouteID: "3", RouteType: metlink.RouteTypeBus},
	}
	counts := AvailableTransportTypes(routes, map[string]struct{}{"3": {}})
	if counts[metlink.RouteTypeTrain] != 1 || counts[metlink.RouteTypeBus] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestDirectionLabel(t *testing.T) {
	route := metlink.Route{RouteLongName: "Wellington - Waterloo - Masterton"}
	if got := DirectionLabel(route, 0); got != "Wellington - Waterloo - Masterton" {
		t.Errorf("direction 0 should keep the long name, got %q", got)
	}
	if got := DirectionLabel(route, 1); got != "Masterton - Waterloo - Wellington" {
		t.Errorf("direction 1 should reverse around separators, got %q", got)
	}
}
