// Package status maps free-form order status strings onto the ordered
// fulfilment stages shown by progress components.
package status

import "strings"

// Status is a canonical order status label.
type Status string

const (
	OrderPlaced      Status = "Order Placed"
	Confirmed        Status = "Confirmed"
	AssignedToTailor Status = "Assigned to Tailor"
	StitchingStarted Status = "Stitching Started"
	QualityCheck     Status = "Quality Check"
	Dispatched       Status = "Dispatched"
	OutForDelivery   Status = "Out for Delivery"
	Delivered        Status = "Delivered"
	Cancelled        Status = "Cancelled"
)

// Stage is a position in Stages.
type Stage int

// Stages lists the fulfilment stages in order. Cancelled is not a stage.
var Stages = []Status{
	OrderPlaced,
	Confirmed,
	AssignedToTailor,
	StitchingStarted,
	QualityCheck,
	Dispatched,
	OutForDelivery,
	Delivered,
}

const (
	FirstStage Stage = 0
	LastStage  Stage = 7
)

// Label returns the canonical label of the stage.
func (s Stage) Label() Status {
	if s < FirstStage || s > LastStage {
		return OrderPlaced
	}
	return Stages[s]
}

// Progress is the canonical view of a status string.
type Progress struct {
	Stage     Stage
	Cancelled bool
}

// Status returns the canonical label for the progress.
func (p Progress) Status() Status {
	if p.Cancelled {
		return Cancelled
	}
	return p.Stage.Label()
}

// Percent reports how far along the stage list the order is, 0-100.
func (p Progress) Percent() int {
	if p.Cancelled {
		return 0
	}
	return int(p.Stage) * 100 / int(LastStage)
}

var exactAliases = map[string]Stage{
	"orderplaced":      0,
	"placed":           0,
	"pending":          0,
	"new":              0,
	"confirmed":        1,
	"confirm":          1,
	"assignedtotailor": 2,
	"assigned":         2,
	"stitchingstarted": 3,
	"stitching":        3,
	"intailoring":      3,
	"tailoring":        3,
	"qualitycheck":     4,
	"quality":          4,
	"qc":               4,
	"dispatched":       5,
	"shipped":          5,
	"outfordelivery":   6,
	"outfordeliver":    6,
	"delivered":        7,
	"completed":        7,
}

// Checked in order; "outfordeliver" must win over "delivered".
var substringAliases = []struct {
	key   string
	stage Stage
}{
	{"outfordeliver", 6},
	{"delivered", 7},
	{"dispatch", 5},
	{"shipped", 5},
	{"quality", 4},
	{"stitching", 3},
	{"intailoring", 3},
	{"assigned", 2},
	{"confirm", 1},
	{"placed", 0},
	{"pending", 0},
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isCancelled(normalized string) bool {
	return normalized == "cancelled" || normalized == "canceled"
}

func lookup(normalized string) (Stage, bool) {
	if normalized == "" {
		return FirstStage, false
	}
	if stage, ok := exactAliases[normalized]; ok {
		return stage, true
	}
	for _, alias := range substringAliases {
		if strings.Contains(normalized, alias.key) {
			return alias.stage, true
		}
	}
	return FirstStage, false
}

// Canonicalize converts any status string into a Progress. Unknown strings
// map to the first stage so rendering never fails on unexpected data.
func Canonicalize(s string) Progress {
	n := normalize(s)
	if isCancelled(n) {
		return Progress{Cancelled: true}
	}
	stage, _ := lookup(n)
	return Progress{Stage: stage}
}

// Parse is the strict counterpart of Canonicalize used before writing a
// status. Only exact aliases match, so "Not Delivered" or "Dispatch failed"
// are rejected instead of being stored as a stage.
func Parse(s string) (Status, bool) {
	n := normalize(s)
	if isCancelled(n) {
		return Cancelled, true
	}
	stage, ok := exactAliases[n]
	if !ok {
		return "", false
	}
	return stage.Label(), true
}

// IsTerminal reports whether no further transition may leave the status.
func IsTerminal(s string) bool {
	p := Canonicalize(s)
	return p.Cancelled || p.Stage == LastStage
}

// CanTransition reports whether an order may move from one status to
// another. Stages only move forward; staying put is allowed. Cancelled is
// reachable from every stage before Delivered and cannot be left.
func CanTransition(from, to string) bool {
	pf, pt := Canonicalize(from), Canonicalize(to)
	if pf.Cancelled {
		return pt.Cancelled
	}
	if pt.Cancelled {
		return pf.Stage != LastStage
	}
	return pt.Stage >= pf.Stage
}
