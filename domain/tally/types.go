package tally

import (
	"fmt"
	"strings"

	"gopress/domain/core"
)

// Sign is a qualitative outcome: -1, 0 or +1
type Sign int8

const (
	Negative Sign = -1
	Zero     Sign = 0
	Positive Sign = 1
)

// Columns is the fixed column order of a Table
var Columns = [3]Sign{Negative, Zero, Positive}

// Valid reports whether s is one of the three signs
func (s Sign) Valid() bool {
	return s >= Negative && s <= Positive
}

// Column returns the table column holding counts for s
func (s Sign) Column() int {
	return int(s) + 1
}

func (s Sign) String() string {
	switch s {
	case Negative:
		return "-"
	case Zero:
		return "0"
	case Positive:
		return "+"
	}
	return fmt.Sprintf("Sign(%d)", int8(s))
}

// ParseSign accepts "-", "0", "+" and the numeric forms -1, 0, 1.
func ParseSign(s string) (Sign, error) {
	switch strings.TrimSpace(s) {
	case "-", "-1":
		return Negative, nil
	case "0", "":
		return Zero, nil
	case "+", "1", "+1":
		return Positive, nil
	}
	return Zero, core.NewArgumentError("sign", fmt.Sprintf("%q is not one of -, 0, +", s))
}

// Observation is a monitored outcome that is either a known sign or unknown.
// The zero value is Unknown.
type Observation struct {
	known bool
	sign  Sign
}

// Unknown is the observation that matches every prediction
var Unknown = Observation{}

// Known wraps an observed sign
func Known(s Sign) Observation {
	return Observation{known: true, sign: s}
}

// Sign returns the observed sign and whether it is known
func (o Observation) Sign() (Sign, bool) {
	return o.sign, o.known
}

// IsKnown reports whether the outcome was observed
func (o Observation) IsKnown() bool {
	return o.known
}

// Matches reports whether a predicted sign agrees with the observation
func (o Observation) Matches(predicted Sign) bool {
	return !o.known || o.sign == predicted
}

func (o Observation) String() string {
	if !o.known {
		return "?"
	}
	return o.sign.String()
}

// ParseObservation accepts the sign forms plus "?" or "NA" for unknown.
func ParseObservation(s string) (Observation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "?", "NA", "UNKNOWN":
		return Unknown, nil
	}
	sign, err := ParseSign(s)
	if err != nil {
		return Unknown, err
	}
	return Known(sign), nil
}

// Perturbation is the press applied to each node, in node order
type Perturbation []Sign

// Monitoring is the observed outcome for each node, in node order
type Monitoring []Observation

// UnknownMonitoring returns a monitoring vector with every node unknown
func UnknownMonitoring(n int) Monitoring {
	return make(Monitoring, n)
}

// Table holds per-node outcome counts. Row i belongs to node i; columns
// follow Columns.
type Table struct {
	Counts [][3]int `json:"counts"`
}

// NewTable returns an n x 3 zero table
func NewTable(n int) Table {
	return Table{Counts: make([][3]int, n)}
}

// Rows returns the number of nodes
func (t Table) Rows() int {
	return len(t.Counts)
}

// Count returns the number of simulations predicting s at node i
func (t Table) Count(i int, s Sign) int {
	return t.Counts[i][s.Column()]
}

// Total returns the sum of all cells
func (t Table) Total() int {
	total := 0
	for _, row := range t.Counts {
		total += row[0] + row[1] + row[2]
	}
	return total
}

// IsZero reports whether nothing was tallied. Renderers skip such tables.
func (t Table) IsZero() bool {
	return t.Total() == 0
}

// Add merges other into t cell by cell
func (t *Table) Add(other Table) error {
	if other.Rows() != t.Rows() {
		return core.NewDimensionError("table", other.Rows(), t.Rows())
	}
	for i := range t.Counts {
		for j := 0; j < 3; j++ {
			t.Counts[i][j] += other.Counts[i][j]
		}
	}
	return nil
}

// Proportions returns each row normalised to sum to one. Rows with no
// counts stay zero.
func (t Table) Proportions() [][3]float64 {
	out := make([][3]float64, len(t.Counts))
	for i, row := range t.Counts {
		sum := row[0] + row[1] + row[2]
		if sum == 0 {
			continue
		}
		for j := 0; j < 3; j++ {
			out[i][j] = float64(row[j]) / float64(sum)
		}
	}
	return out
}

// MarshalText encodes a sign as "-", "0" or "+"
func (s Sign) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, core.NewArgumentError("sign", fmt.Sprintf("%d out of range", int8(s)))
	}
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (s *Sign) UnmarshalText(text []byte) error {
	parsed, err := ParseSign(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText encodes an observation as a sign or "?"
func (o Observation) MarshalText() ([]byte, error) {
	if o.known && !o.sign.Valid() {
		return nil, core.NewArgumentError("observation", fmt.Sprintf("%d out of range", int8(o.sign)))
	}
	return []byte(o.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (o *Observation) UnmarshalText(text []byte) error {
	parsed, err := ParseObservation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
