// Package planner orders resolved packages for installation.
package planner

import (
	"sort"
	"strings"

	"github.com/lincolnep/xcode-tools/internal/models"
)

// removalMarker identifies packages that uninstall a previous SDK.
const removalMarker = "Remove"

// IsRemoval reports whether the package basename names a removal package.
func IsRemoval(name string) bool {
	return strings.Contains(name, removalMarker)
}

// Plan places removal packages first, sorted by basename, followed by the
// remaining packages in resolution order.
func Plan(set *models.ResolvedPackageSet) models.InstallPlan {
	var plan models.InstallPlan
	for _, pkg := range set.Packages() {
		if IsRemoval(pkg.Name) {
			plan.Removals = append(plan.Removals, pkg)
		} else {
			plan.Remaining = append(plan.Remaining, pkg)
		}
	}

	sort.SliceStable(plan.Removals, func(i, j int) bool {
		return plan.Removals[i].Name < plan.Removals[j].Name
	})
	return plan
}
