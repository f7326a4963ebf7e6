package engine

import (
	"math"

	"github.com/rosterkit/rosterkit/core/model"
)

// extractInto decodes the solver's value vector into a Schedule, the flat
// assignment list and per-window production. Iteration follows input order
// throughout, so identical solutions always decode identically.
func (b *cpModel) extractInto(res *model.SolveResult, sol []int, objVal int) {
	res.Objective = float64(objVal - b.objConst)

	sched := model.Schedule{}
	for wi, w := range b.windows {
		var ids []string
		for ei, e := range b.in.Employees {
			av := b.assign[empWindow{ei, wi}]
			if av == nil || sol[av.ID()] != 2 {
				continue
			}
			roleID := ""
			for _, r := range b.in.Roles {
				if rv := b.roleAssign[empRoleWindow{ei, r.ID, wi}]; rv != nil && sol[rv.ID()] == 2 {
					roleID = r.ID
					break
				}
			}
			res.Assignments = append(res.Assignments, model.Assignment{
				EmployeeID: e.ID,
				RoleID:     roleID,
				Window:     w,
			})
			ids = append(ids, e.ID)
		}
		if len(ids) > 0 {
			sched[w.Day] = append(sched[w.Day], model.WindowAssignments{Window: w, EmployeeIDs: ids})
		}
	}
	res.Schedule = sched
	res.Production = b.extractProduction(sol)
}

// extractProduction recomputes served items per window from the solved role
// headcounts with the same scaling arithmetic the constraints use. A nil
// solution means an empty schedule: everything forecast is unmet.
func (b *cpModel) extractProduction(sol []int) []model.WindowProduction {
	var out []model.WindowProduction
	for wi, w := range b.windows {
		dem := b.demandAt[wi]
		served := 0
		if sol != nil {
			served = b.servedAt(wi, w, sol)
		}
		if dem == 0 && served == 0 {
			continue
		}
		unmet := dem - served
		if unmet < 0 {
			unmet = 0
		}
		out = append(out, model.WindowProduction{Window: w, Demand: dem, Served: served, Unmet: unmet})
	}
	return out
}

func (b *cpModel) servedAt(wi int, w model.Window, sol []int) int {
	served := 0
	for _, c := range b.in.Chains {
		raw := 0
		any := false
		for _, rid := range c.Roles {
			r, ok := b.in.RoleByID(rid)
			if !ok || !r.Producing {
				continue
			}
			hv := b.head[roleWindow{rid, wi}]
			if hv == nil {
				continue
			}
			coeff := int(math.Round(r.ItemsPerHour * w.Hours()))
			if coeff <= 0 {
				continue
			}
			raw += coeff * (sol[hv.ID()] - 1)
			any = true
		}
		if !any {
			continue
		}
		num, den := contribRatio(c.ContribFactor, b.pol.ContribScale)
		served += num * raw / den
	}
	return served
}
