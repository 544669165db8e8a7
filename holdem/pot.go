package holdem

import "sort"

// Contribution is what one seat put in over the whole hand.
type Contribution struct {
	Seat   int
	Amount int64
	Folded bool
}

// Pot is a main or side pot. Eligible seats are sorted ascending.
type Pot struct {
	Amount   int64
	Eligible []int
}

// BuildPots splits hand contributions into pots by contribution level.
//
// Each distinct level forms a pot from the increment every contributor
// reaching it put in; eligible seats are those reaching it without folding.
// Adjacent pots with the same eligible set are merged, and a level nobody
// can win joins the previous pot (or the next one when it is first).
// The pot amounts always sum to the contributions.
func BuildPots(contribs []Contribution) []Pot {
	sorted := make([]Contribution, 0, len(contribs))
	for _, c := range contribs {
		if c.Amount > 0 {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount < sorted[j].Amount
	})

	pots := make([]Pot, 0, 2)
	orphan := int64(0) // levels with no eligible seat before the first real pot
	level := int64(0)
	for i, c := range sorted {
		inc := c.Amount - level
		if inc <= 0 {
			continue
		}
		next := Pot{}
		for _, o := range sorted[i:] {
			next.Amount += inc
			if !o.Folded {
				next.Eligible = append(next.Eligible, o.Seat)
			}
		}
		sort.Ints(next.Eligible)
		level = c.Amount

		switch {
		case len(next.Eligible) == 0 && len(pots) == 0:
			orphan += next.Amount
		case len(next.Eligible) == 0:
			pots[len(pots)-1].Amount += next.Amount
		case len(pots) > 0 && sameSeats(pots[len(pots)-1].Eligible, next.Eligible):
			pots[len(pots)-1].Amount += next.Amount
		default:
			next.Amount += orphan
			orphan = 0
			pots = append(pots, next)
		}
	}
	if orphan > 0 {
		// everybody folded; keep the chips accounted for
		pots = append(pots, Pot{Amount: orphan})
	}
	return pots
}

func sameSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func potsTotal(pots []Pot) int64 {
	total := int64(0)
	for _, p := range pots {
		total += p.Amount
	}
	return total
}
