// Package ledger defines the error taxonomy of the ticket inventory ledger.
// Every error names the offending control numbers so callers can surface an
// accurate correction screen; none of them is ever swallowed into a generic
// failure. Services return these as typed values and handlers match them
// with errors.As.
package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// FormatError reports a malformed token in range-notation input.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed control number token %q", e.Token)
}

// DuplicateError reports a control number appearing twice after range
// expansion.
type DuplicateError struct {
	ControlNumber int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate control number %d", e.ControlNumber)
}

// EmptyBatchError rejects a mutating call that references zero tickets.
type EmptyBatchError struct{}

func (e *EmptyBatchError) Error() string {
	return "batch must reference at least one control number"
}

// Offender describes one control number that failed a batch precondition.
// Exists is false when the number is not part of the schedule's pool at all;
// otherwise Status and Paid reflect the ticket's current state.
type Offender struct {
	ControlNumber int    `json:"controlNumber"`
	Exists        bool   `json:"exists"`
	Status        string `json:"status,omitempty"`
	Paid          bool   `json:"paid,omitempty"`
	WrongOwner    bool   `json:"wrongOwner,omitempty"`
}

// ConflictError reports that one or more control numbers were not in the
// required source state. The whole batch was rejected — no ticket moved.
type ConflictError struct {
	Offenders []Offender
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("control numbers not in required state: %s", joinOffenders(e.Offenders))
}

// Numbers returns the offending control numbers in ascending order.
func (e *ConflictError) Numbers() []int {
	return offenderNumbers(e.Offenders)
}

// InvalidStateError reports an operation requested against tickets outside
// the legal transition graph, e.g. unallocating a sold ticket.
type InvalidStateError struct {
	Offenders []Offender
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("illegal transition for control numbers: %s", joinOffenders(e.Offenders))
}

func (e *InvalidStateError) Numbers() []int {
	return offenderNumbers(e.Offenders)
}

// OverlapError reports control numbers appearing in two mutually exclusive
// sets of one request (e.g. both sold and lost).
type OverlapError struct {
	ControlNumbers []int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("control numbers in both sold and lost sets: %s", joinInts(e.ControlNumbers))
}

// InvalidDiscountError reports a discount keyed to a control number that is
// not part of the sold set. Lost tickets are never discounted.
type InvalidDiscountError struct {
	ControlNumbers []int
}

func (e *InvalidDiscountError) Error() string {
	return fmt.Sprintf("discount references non-sold control numbers: %s", joinInts(e.ControlNumbers))
}

func offenderNumbers(offs []Offender) []int {
	nums := make([]int, 0, len(offs))
	for _, o := range offs {
		nums = append(nums, o.ControlNumber)
	}
	sort.Ints(nums)
	return nums
}

func joinOffenders(offs []Offender) string {
	return joinInts(offenderNumbers(offs))
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ",")
}
