package engine

import (
	"fmt"
	"math"
	"time"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"

	"github.com/rosterkit/rosterkit/core/model"
	"github.com/rosterkit/rosterkit/core/policy"
	"github.com/rosterkit/rosterkit/core/timegrid"
)

// All finite domains are 1-indexed, so every quantity is stored offset by
// one: a variable encoding value v holds v+1, and booleans use {1=false,
// 2=true}. The shared "one" variable (domain {1}) absorbs the constant part
// of affine rows so plain linear sums can express offset arithmetic.

type empWindow struct {
	emp, win int
}

type empRoleWindow struct {
	emp  int
	role string
	win  int
}

type roleWindow struct {
	role string
	win  int
}

// cpModel lowers one SchedulerInput onto a finite-domain constraint model.
type cpModel struct {
	in      model.SchedulerInput
	demand  model.DemandForecast
	pol     policy.Policy
	windows []model.Window

	m   *mk.Model
	one *mk.FDVariable

	assign     map[empWindow]*mk.FDVariable
	roleAssign map[empRoleWindow]*mk.FDVariable
	roleVars   map[roleWindow][]*mk.FDVariable
	head       map[roleWindow]*mk.FDVariable

	demandAt []int

	objVars   []*mk.FDVariable
	objCoeffs []int
	objMaxEnc []int
	objIndex  map[int]int
	objConst  int

	// infeasible carries a structural diagnosis proven before search.
	infeasible string

	err error
}

func newCPModel(in model.SchedulerInput, demand model.DemandForecast, pol policy.Policy, windows []model.Window) *cpModel {
	m := mk.NewModel()
	return &cpModel{
		in:         in,
		demand:     demand,
		pol:        pol,
		windows:    windows,
		m:          m,
		one:        m.NewVariableWithName(mk.NewBitSetDomainFromValues(1, []int{1}), "one"),
		assign:     make(map[empWindow]*mk.FDVariable),
		roleAssign: make(map[empRoleWindow]*mk.FDVariable),
		roleVars:   make(map[roleWindow][]*mk.FDVariable),
		head:       make(map[roleWindow]*mk.FDVariable),
		demandAt:   make([]int, len(windows)),
		objIndex:   make(map[int]int),
	}
}

func (b *cpModel) build() error {
	b.checkStructural()
	if b.infeasible != "" {
		return nil
	}
	b.buildAssignVars()
	b.buildHeadcounts()
	if b.in.Config.FixedShifts {
		b.buildShiftGaps()
	} else {
		b.buildDaySequences()
	}
	b.buildWeeklyHours()
	b.buildDemandRows()
	return b.err
}

// checkStructural proves infeasibility that needs no search: a role whose
// minimum staffing can never be met by the roster.
func (b *cpModel) checkStructural() {
	for _, r := range b.in.Roles {
		if r.MinPresent <= 0 {
			continue
		}
		eligible := len(b.in.EligibleEmployees(r.ID))
		if eligible < r.MinPresent {
			b.infeasible = fmt.Sprintf(
				"role %s requires min_present=%d but only %d eligible employees exist",
				r.ID, r.MinPresent, eligible)
			return
		}
	}
}

// buildAssignVars creates one boolean per (employee, coverable window), plus
// one boolean per eligible role when the employee can fill several. The
// per-window boolean equals the count of role booleans, which also caps the
// count at one role per window.
func (b *cpModel) buildAssignVars() {
	slotMin := b.in.Config.SlotMinutes()
	for wi, w := range b.windows {
		for ei, e := range b.in.Employees {
			if !timegrid.CoverableBy(e, w) {
				continue
			}
			if b.in.Config.FixedShifts {
				slots := (w.Minutes() + slotMin - 1) / slotMin
				if slots > e.MaxConsecSlots {
					continue
				}
			}
			var eligible []model.Role
			for _, r := range b.in.Roles {
				if e.EligibleFor(r.ID) {
					eligible = append(eligible, r)
				}
			}
			if len(eligible) == 0 {
				continue
			}

			var av *mk.FDVariable
			if len(eligible) == 1 {
				r := eligible[0]
				av = b.boolVar(fmt.Sprintf("a/%s/%d", e.ID, wi))
				b.roleAssign[empRoleWindow{ei, r.ID, wi}] = av
				rw := roleWindow{r.ID, wi}
				b.roleVars[rw] = append(b.roleVars[rw], av)
			} else {
				rvars := make([]*mk.FDVariable, 0, len(eligible))
				for _, r := range eligible {
					rv := b.boolVar(fmt.Sprintf("a/%s/%s/%d", e.ID, r.ID, wi))
					b.roleAssign[empRoleWindow{ei, r.ID, wi}] = rv
					rw := roleWindow{r.ID, wi}
					b.roleVars[rw] = append(b.roleVars[rw], rv)
					rvars = append(rvars, rv)
				}
				av = b.boolVar(fmt.Sprintf("a/%s/%d", e.ID, wi))
				b.boolSum(rvars, av)
			}
			b.assign[empWindow{ei, wi}] = av

			wage := int(math.Round(e.HourlyWage * w.Hours() * float64(b.pol.CostScale)))
			if wage < 1 {
				wage = 1
			}
			b.addObjTerm(av, wage, 2)
			if !timegrid.Preferred(e, w) {
				b.addObjTerm(av, b.pol.PreferredWindowPenalty, 2)
			}
		}
	}
}

// buildHeadcounts ties each (role, window) headcount to its assignment
// booleans. The headcount domain carries the min_present rule directly:
// {0} when the role cannot be staffed, otherwise {0} ∪ [min_present..n].
// Non-independent roles additionally require some other role present,
// expressed as the linear row n*H - h >= 0 over actual counts.
func (b *cpModel) buildHeadcounts() {
	for wi := range b.windows {
		for _, r := range b.in.Roles {
			vars := b.roleVars[roleWindow{r.ID, wi}]
			if len(vars) == 0 {
				continue
			}
			n := len(vars)
			hasOther := false
			for _, o := range b.in.Roles {
				if o.ID != r.ID && len(b.roleVars[roleWindow{o.ID, wi}]) > 0 {
					hasOther = true
					break
				}
			}

			var dom mk.Domain
			switch {
			case !r.Independent && !hasOther:
				dom = mk.NewBitSetDomainFromValues(n+1, []int{1})
			case r.MinPresent > n:
				dom = mk.NewBitSetDomainFromValues(n+1, []int{1})
			case r.MinPresent > 0:
				vals := make([]int, 0, n-r.MinPresent+2)
				vals = append(vals, 1)
				for v := r.MinPresent + 1; v <= n+1; v++ {
					vals = append(vals, v)
				}
				dom = mk.NewBitSetDomainFromValues(n+1, vals)
			default:
				dom = mk.NewBitSetDomain(n + 1)
			}
			hv := b.m.NewVariableWithName(dom, fmt.Sprintf("h/%s/%d", r.ID, wi))
			b.head[roleWindow{r.ID, wi}] = hv
			b.boolSum(vars, hv)
		}

		for _, r := range b.in.Roles {
			if r.Independent {
				continue
			}
			hv := b.head[roleWindow{r.ID, wi}]
			if hv == nil {
				continue
			}
			var others []*mk.FDVariable
			otherMaxEnc := 0
			for _, o := range b.in.Roles {
				if o.ID == r.ID {
					continue
				}
				if ov := b.head[roleWindow{o.ID, wi}]; ov != nil {
					others = append(others, ov)
					otherMaxEnc += len(b.roleVars[roleWindow{o.ID, wi}]) + 1
				}
			}
			if len(others) == 0 {
				continue // headcount domain already pins the role to zero
			}
			nr := len(b.roleVars[roleWindow{r.ID, wi}])
			k := nr + 2
			lo := nr*len(others) + nr + 1
			hi := nr*otherMaxEnc - 1 + k
			t := b.rangeVar(lo, hi, fmt.Sprintf("dep/%s/%d", r.ID, wi))
			vars := make([]*mk.FDVariable, 0, len(others)+2)
			coeffs := make([]int, 0, len(others)+2)
			for _, ov := range others {
				vars = append(vars, ov)
				coeffs = append(coeffs, nr)
			}
			vars = append(vars, hv, b.one)
			coeffs = append(coeffs, -1, k)
			b.linSum(vars, coeffs, t)
		}
	}
}

// buildDaySequences enforces rest, maximum consecutive slots and minimum
// shift length in uniform-slot mode with one run-length constraint per
// employee and day. The day's slot sequence is padded on both sides with
// min_rest fixed-idle variables so idle runs touching the day boundary are
// never shorter than the rest minimum.
func (b *cpModel) buildDaySequences() {
	cfg := b.in.Config
	for ei, e := range b.in.Employees {
		for _, day := range b.dayGroups() {
			var empVars []*mk.FDVariable
			for _, wi := range day.wins {
				if v := b.assign[empWindow{ei, wi}]; v != nil {
					empVars = append(empVars, v)
				}
			}
			if len(empVars) == 0 {
				continue
			}
			nslots := len(day.wins)
			rest := cfg.MinRestSlots
			workMin := cfg.MinShiftLengthSlots
			workMax := e.MaxConsecSlots
			if workMax > nslots {
				workMax = nslots
			}
			if rest == 0 && workMin <= 1 && e.MaxConsecSlots >= nslots {
				continue
			}
			if workMin > workMax {
				// No legal run length exists for this employee on this day.
				b.forceAllFalse(empVars)
				continue
			}

			seq := make([]*mk.FDVariable, 0, nslots+2*rest)
			for i := 0; i < rest; i++ {
				seq = append(seq, b.idleVar())
			}
			for _, wi := range day.wins {
				if v := b.assign[empWindow{ei, wi}]; v != nil {
					seq = append(seq, v)
				} else {
					seq = append(seq, b.idleVar())
				}
			}
			for i := 0; i < rest; i++ {
				seq = append(seq, b.idleVar())
			}

			idleMin := 1
			if rest > 0 {
				idleMin = rest
			}
			if _, err := mk.NewStretch(b.m, seq,
				[]int{1, 2},
				[]int{idleMin, workMin},
				[]int{len(seq), workMax}); err != nil {
				b.fail(err)
			}
		}
	}
}

// buildShiftGaps enforces rest and consecutive limits in fixed-shift mode
// with pairwise exclusions: two same-day shifts closer than the rest
// minimum, or adjacent shifts whose combined slot count exceeds the
// employee's consecutive cap, cannot both be assigned.
func (b *cpModel) buildShiftGaps() {
	cfg := b.in.Config
	slotMin := cfg.SlotMinutes()
	for ei, e := range b.in.Employees {
		for _, day := range b.dayGroups() {
			for i := 0; i < len(day.wins); i++ {
				v1 := b.assign[empWindow{ei, day.wins[i]}]
				if v1 == nil {
					continue
				}
				w1 := b.windows[day.wins[i]]
				for j := i + 1; j < len(day.wins); j++ {
					v2 := b.assign[empWindow{ei, day.wins[j]}]
					if v2 == nil {
						continue
					}
					w2 := b.windows[day.wins[j]]
					gap := w2.Start - w1.End
					conflict := false
					if gap == 0 {
						combined := (w1.Minutes()+slotMin-1)/slotMin + (w2.Minutes()+slotMin-1)/slotMin
						conflict = combined > e.MaxConsecSlots
					} else if gap > 0 {
						conflict = gap/slotMin < cfg.MinRestSlots
					}
					if conflict {
						b.atMostOne(v1, v2)
					}
				}
			}
		}
	}
}

// buildWeeklyHours bounds each employee's assigned minutes and, when a
// weekly target is set, splits the deviation from it into an under and an
// over slack that the objective penalizes per minute.
func (b *cpModel) buildWeeklyHours() {
	for ei, e := range b.in.Employees {
		var vars []*mk.FDVariable
		var mins []int
		total := 0
		for wi := range b.windows {
			if v := b.assign[empWindow{ei, wi}]; v != nil {
				m := b.windows[wi].Minutes()
				vars = append(vars, v)
				mins = append(mins, m)
				total += m
			}
		}
		if len(vars) == 0 {
			continue
		}
		capMin := int(e.MaxHoursPerWeek*60 + 0.5)
		prefMin := int(e.PrefHours*60 + 0.5)
		needCap := capMin < total
		if !needCap && prefMin == 0 {
			continue
		}
		tHi := 2 * total
		if needCap {
			tHi = total + capMin
		}
		t := b.rangeVar(total, tHi, fmt.Sprintf("wk/%s", e.ID))
		b.linSum(vars, mins, t)

		if prefMin > 0 {
			maxOver := tHi - total - prefMin
			if maxOver < 0 {
				maxOver = 0
			}
			u := b.rangeVar(1, prefMin+1, fmt.Sprintf("under/%s", e.ID))
			o := b.rangeVar(1, maxOver+1, fmt.Sprintf("over/%s", e.ID))
			p := b.m.NewVariableWithName(
				mk.NewBitSetDomainFromValues(total+prefMin, []int{total + prefMin}),
				fmt.Sprintf("pref/%s", e.ID))
			b.linSum([]*mk.FDVariable{t, u, o}, []int{1, 1, -1}, p)
			b.addObjTerm(u, b.pol.PrefHoursDeviationWeight, prefMin+1)
			b.addObjTerm(o, b.pol.PrefHoursDeviationWeight, maxOver+1)
		}
	}
}

// buildDemandRows links role headcounts to served items per window. Each
// chain gets a raw-output sum and a bottleneck-scaled output tied together
// by an integer division constraint on a denominator-offset dividend, so
// the floor commutes exactly with the +1 encoding. Hard demand becomes a
// lower bound on the served total; soft demand gets a penalized slack.
func (b *cpModel) buildDemandRows() {
	hard := b.in.Config.MeetAllDemand
	for wi, w := range b.windows {
		dem := b.demand.WindowItems(w)
		b.demandAt[wi] = dem
		if dem == 0 {
			continue
		}

		var scaleds []*mk.FDVariable
		servedMax := 0
		for _, c := range b.in.Chains {
			heads, coeffs, rawMax := b.chainTerms(c, wi, w)
			if len(heads) == 0 {
				continue
			}
			sumC := 0
			for _, cf := range coeffs {
				sumC += cf
			}
			raw := b.rangeVar(1, rawMax+1, fmt.Sprintf("raw/%s/%d", c.ID, wi))
			b.linSum(append(heads, b.one), append(coeffs, 1-sumC), raw)

			num, den := contribRatio(c.ContribFactor, b.pol.ContribScale)
			scaled := raw
			scaledMax := rawMax
			if num != den {
				d := b.rangeVar(den, num*rawMax+den, fmt.Sprintf("div/%s/%d", c.ID, wi))
				b.linSum([]*mk.FDVariable{raw, b.one}, []int{num, den - num}, d)
				scaledMax = num * rawMax / den
				scaled = b.rangeVar(1, scaledMax+1, fmt.Sprintf("out/%s/%d", c.ID, wi))
				b.scaledDiv(d, den, scaled)
			}
			scaleds = append(scaleds, scaled)
			servedMax += scaledMax
		}

		if len(scaleds) == 0 {
			if hard {
				b.infeasible = fmt.Sprintf(
					"window %s demands %d items but no production chain can serve it", w, dem)
				return
			}
			continue
		}
		if hard && dem > servedMax {
			b.infeasible = fmt.Sprintf(
				"window %s demands %d items but theoretical capacity is %d", w, dem, servedMax)
			return
		}

		lo := 1
		if hard {
			lo = dem + 1
		}
		served := b.rangeVar(lo, servedMax+1, fmt.Sprintf("served/%d", wi))
		coeffs := make([]int, len(scaleds), len(scaleds)+1)
		for i := range coeffs {
			coeffs[i] = 1
		}
		vars := make([]*mk.FDVariable, len(scaleds), len(scaleds)+1)
		copy(vars, scaleds)
		b.linSum(append(vars, b.one), append(coeffs, 1-len(scaleds)), served)

		if !hard {
			slack := b.rangeVar(1, dem+1, fmt.Sprintf("unmet/%d", wi))
			tot := b.rangeVar(dem+2, servedMax+dem+2, fmt.Sprintf("cover/%d", wi))
			b.linSum([]*mk.FDVariable{served, slack}, []int{1, 1}, tot)
			b.addObjTerm(slack, b.pol.UnmetDemandPenalty, dem+1)
		}
	}
}

// chainTerms returns the headcount variables of a chain's producing roles in
// a window with their per-window item coefficients and the raw-output bound.
func (b *cpModel) chainTerms(c model.ProductionChain, wi int, w model.Window) ([]*mk.FDVariable, []int, int) {
	var heads []*mk.FDVariable
	var coeffs []int
	rawMax := 0
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
		heads = append(heads, hv)
		coeffs = append(coeffs, coeff)
		rawMax += coeff * len(b.roleVars[roleWindow{rid, wi}])
	}
	return heads, coeffs, rawMax
}

// buildObjective folds every cost term into one linear row. The reported
// objective subtracts the encoding offsets so an empty schedule scores zero.
func (b *cpModel) buildObjective() *mk.FDVariable {
	sum, hi := 0, 0
	for i, c := range b.objCoeffs {
		sum += c
		hi += c * b.objMaxEnc[i]
	}
	b.objConst = sum
	obj := b.rangeVar(sum, hi, "objective")
	b.linSum(b.objVars, b.objCoeffs, obj)
	return obj
}

type dayGroup struct {
	day  time.Weekday
	wins []int
}

// dayGroups partitions the window indices by day, preserving order.
func (b *cpModel) dayGroups() []dayGroup {
	var groups []dayGroup
	for wi, w := range b.windows {
		if len(groups) == 0 || groups[len(groups)-1].day != w.Day {
			groups = append(groups, dayGroup{day: w.Day})
		}
		groups[len(groups)-1].wins = append(groups[len(groups)-1].wins, wi)
	}
	return groups
}

func (b *cpModel) addObjTerm(v *mk.FDVariable, coeff, maxEnc int) {
	if coeff <= 0 {
		return
	}
	if idx, ok := b.objIndex[v.ID()]; ok {
		b.objCoeffs[idx] += coeff
		return
	}
	b.objIndex[v.ID()] = len(b.objVars)
	b.objVars = append(b.objVars, v)
	b.objCoeffs = append(b.objCoeffs, coeff)
	b.objMaxEnc = append(b.objMaxEnc, maxEnc)
}

func (b *cpModel) boolVar(name string) *mk.FDVariable {
	return b.m.NewVariableWithName(mk.NewBitSetDomain(2), name)
}

func (b *cpModel) idleVar() *mk.FDVariable {
	return b.m.NewVariable(mk.NewBitSetDomainFromValues(2, []int{1}))
}

func (b *cpModel) rangeVar(lo, hi int, name string) *mk.FDVariable {
	if lo < 1 {
		lo = 1
	}
	return b.m.NewVariableWithName(mk.NewBitSetDomain(hi).RemoveBelow(lo), name)
}

func (b *cpModel) forceAllFalse(vars []*mk.FDVariable) {
	zero := b.m.NewVariable(mk.NewBitSetDomainFromValues(len(vars)+1, []int{1}))
	b.boolSum(vars, zero)
}

func (b *cpModel) atMostOne(v1, v2 *mk.FDVariable) {
	tot := b.m.NewVariable(mk.NewBitSetDomain(2))
	b.boolSum([]*mk.FDVariable{v1, v2}, tot)
}

func (b *cpModel) linSum(vars []*mk.FDVariable, coeffs []int, total *mk.FDVariable) {
	c, err := mk.NewLinearSum(vars, coeffs, total)
	if err != nil {
		b.fail(err)
		return
	}
	b.m.AddConstraint(c)
}

func (b *cpModel) boolSum(vars []*mk.FDVariable, total *mk.FDVariable) {
	c, err := mk.NewBoolSum(vars, total)
	if err != nil {
		b.fail(err)
		return
	}
	b.m.AddConstraint(c)
}

func (b *cpModel) scaledDiv(dividend *mk.FDVariable, divisor int, quotient *mk.FDVariable) {
	c, err := mk.NewScaledDivision(dividend, divisor, quotient)
	if err != nil {
		b.fail(err)
		return
	}
	b.m.AddConstraint(c)
}

func (b *cpModel) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// contribRatio rescales a contribution factor to a reduced integer fraction.
func contribRatio(factor float64, scale int) (num, den int) {
	num = int(math.Round(factor * float64(scale)))
	if num < 1 {
		num = 1
	}
	if num > scale {
		num = scale
	}
	den = scale
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
