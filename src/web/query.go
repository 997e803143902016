package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

// pickerNames are the form fields of the six country pickers, in order.
var pickerNames = []string{"c1", "c2", "c3", "c4", "c5", "c6"}

// parseSelection reads the selection from a query string. Countries come from
// c1..c6 when any of them is present, otherwise from repeated "country" values,
// otherwise from def. low/high default to def and are clamped to the picker
// bounds; an inverted range is kept as is. When "moved" names a handle the
// other one is pushed to keep the minimum gap, like the page's range picker.
func parseSelection(q url.Values, def trajectory.Selection) (trajectory.Selection, error) {
	countries := def.Countries
	if hasAny(q, pickerNames) {
		countries = make([]string, 0, len(pickerNames))
		for _, name := range pickerNames {
			countries = append(countries, q.Get(name))
		}
	} else if vals, ok := q["country"]; ok {
		countries = vals
	}

	low, err := intParam(q, "low", def.Range.Low)
	if err != nil {
		return trajectory.Selection{}, err
	}
	high, err := intParam(q, "high", def.Range.High)
	if err != nil {
		return trajectory.Selection{}, err
	}
	sel := trajectory.NewSelection(countries, low, high)
	sel.Range = sel.Range.Clamp()
	switch q.Get("moved") {
	case "low":
		sel.Range = trajectory.PushHandles(sel.Range, trajectory.LowHandle, trajectory.HandleGap)
	case "high":
		sel.Range = trajectory.PushHandles(sel.Range, trajectory.HighHandle, trajectory.HandleGap)
	}
	return sel, nil
}

func hasAny(q url.Values, names []string) bool {
	for _, n := range names {
		if _, ok := q[n]; ok {
			return true
		}
	}
	return false
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a whole number", name, s)
	}
	return n, nil
}

// selectionQuery encodes sel the way parseSelection reads it.
func selectionQuery(sel trajectory.Selection) url.Values {
	q := url.Values{}
	for i, name := range pickerNames {
		v := ""
		if i < len(sel.Countries) {
			v = sel.Countries[i]
		}
		q.Set(name, v)
	}
	q.Set("low", strconv.Itoa(sel.Range.Low))
	q.Set("high", strconv.Itoa(sel.Range.High))
	return q
}

// pickerValues returns what each of the six pickers should show. Explicit
// c1..c6 values keep their positions, blanks included.
func pickerValues(q url.Values, sel trajectory.Selection) []string {
	out := make([]string, len(pickerNames))
	if hasAny(q, pickerNames) {
		for i, name := range pickerNames {
			out[i] = strings.TrimSpace(q.Get(name))
		}
		return out
	}
	copy(out, sel.Countries)
	return out
}
