package trajectory

import (
	"fmt"
	"strings"
)

// Day offset bounds of the range picker, inclusive.
const (
	MinDay = 0
	MaxDay = 160
)

// MaxCountries is the number of country pickers on the dashboard.
const MaxCountries = 6

// HandleGap is the minimum distance kept between the two range handles when one
// is pushed against the other.
const HandleGap = 2

// DefaultCountries preset the six pickers.
var DefaultCountries = []string{"US", "Brazil", "United Kingdom", "Spain", "Italy", "China"}

// DefaultRange is the initial day window.
var DefaultRange = DayRange{Low: 0, High: 50}

// DayRange is a closed interval of day offsets. Low > High is a valid, empty range.
type DayRange struct {
	Low  int `json:"low" yaml:"low" mapstructure:"low"`
	High int `json:"high" yaml:"high" mapstructure:"high"`
}

// Empty reports whether no day can fall inside the range.
func (r DayRange) Empty() bool { return r.Low > r.High }

// Contains reports whether Low <= d <= High.
func (r DayRange) Contains(d int) bool { return r.Low <= d && d <= r.High }

// Clamp moves both ends into [MinDay, MaxDay]. It does not reorder them.
func (r DayRange) Clamp() DayRange {
	return DayRange{Low: clampDay(r.Low), High: clampDay(r.High)}
}

func (r DayRange) String() string { return fmt.Sprintf("[%d,%d]", r.Low, r.High) }

func clampDay(d int) int {
	if d < MinDay {
		return MinDay
	}
	if d > MaxDay {
		return MaxDay
	}
	return d
}

// Selection is the dashboard state the chart is computed from.
type Selection struct {
	Countries []string `json:"countries"`
	Range     DayRange `json:"range"`
}

// NewSelection drops blank picker values and keeps at most MaxCountries
// entries. Duplicates are kept; Filter collapses them.
func NewSelection(countries []string, low, high int) Selection {
	out := make([]string, 0, MaxCountries)
	for _, c := range countries {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if len(out) == MaxCountries {
			break
		}
		out = append(out, c)
	}
	return Selection{Countries: out, Range: DayRange{Low: low, High: high}}
}

// DefaultSelection is the selection shown before the user touches anything.
func DefaultSelection() Selection {
	return NewSelection(DefaultCountries, DefaultRange.Low, DefaultRange.High)
}

// Handle identifies one end of the range picker.
type Handle int

const (
	LowHandle Handle = iota
	HighHandle
)

// PushHandles applies the range picker's no-crossing rule after the moved handle
// changed: the other handle is pushed so at least gap days separate them. The
// result stays within [MinDay, MaxDay].
func PushHandles(r DayRange, moved Handle, gap int) DayRange {
	r = r.Clamp()
	if gap < 0 {
		gap = 0
	}
	if gap > MaxDay-MinDay {
		gap = MaxDay - MinDay
	}
	if r.High-r.Low >= gap {
		return r
	}
	if moved == LowHandle {
		r.High = r.Low + gap
		if r.High > MaxDay {
			r.High = MaxDay
			r.Low = MaxDay - gap
		}
		return r
	}
	r.Low = r.High - gap
	if r.Low < MinDay {
		r.Low = MinDay
		r.High = MinDay + gap
	}
	return r
}

// Mark is a labelled tick under the range picker.
type Mark struct {
	Value     int    `json:"value"`
	Label     string `json:"label"`
	Highlight bool   `json:"highlight,omitempty"`
}

// SliderMarks returns the labelled positions of the range picker; day 100 is emphasised.
func SliderMarks() []Mark {
	values := []int{0, 5, 10, 15, 20, 25, 50, 75, 100, 125, 150}
	marks := make([]Mark, 0, len(values))
	for _, v := range values {
		marks = append(marks, Mark{Value: v, Label: fmt.Sprintf("%d", v), Highlight: v == 100})
	}
	return marks
}
