package diag

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Semantic: ownership and borrowing.
	SemaInfo                Code = 3000
	SemaUseAfterMove        Code = 3101
	SemaUseAfterPartialMove Code = 3102
	SemaBorrowAfterMove     Code = 3103
	SemaBorrowConflict      Code = 3104
	SemaBorrowImmutable     Code = 3105
	SemaAssignWhileBorrowed Code = 3106
	SemaDanglingReference   Code = 3107
	SemaReturnLocalRef      Code = 3108

	// Semantic: regions.
	SemaRegionElisionAmbiguous Code = 3201
	SemaRegionOutlivesStatic   Code = 3202
	SemaRegionTooShort         Code = 3203
	SemaRegionUndeclared       Code = 3204

	// Input loading.
	IOLoadFileError   Code = 4001
	IODecodeError     Code = 4002
	IOFormatVersion   Code = 4003
	IOMalformedUnit   Code = 4004
	IOUnsupportedFile Code = 4005
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                "Unknown error",
		SemaInfo:                   "Semantic information",
		SemaUseAfterMove:           "use of moved value",
		SemaUseAfterPartialMove:    "use of partially moved value",
		SemaBorrowAfterMove:        "borrow of moved value",
		SemaBorrowConflict:         "Borrow conflict",
		SemaBorrowImmutable:        "Cannot take mutable borrow of immutable value",
		SemaAssignWhileBorrowed:    "Assignment while borrowed",
		SemaDanglingReference:      "reference outlives its referent",
		SemaReturnLocalRef:         "returns a reference to a local variable",
		SemaRegionElisionAmbiguous: "cannot elide output region",
		SemaRegionOutlivesStatic:   "region required to outlive 'static",
		SemaRegionTooShort:         "region does not live long enough",
		SemaRegionUndeclared:       "undeclared region",
		IOLoadFileError:            "failed to load file",
		IODecodeError:              "failed to decode syntax tree",
		IOFormatVersion:            "unsupported unit format version",
		IOMalformedUnit:            "malformed syntax tree",
		IOUnsupportedFile:          "unsupported input file",
	}

	codeHelp = map[Code]string{
		SemaUseAfterMove:           "the value was moved and can no longer be used; clone it before the move or reassign it",
		SemaUseAfterPartialMove:    "some fields were moved out; clone before moving individual fields",
		SemaBorrowAfterMove:        "a moved value cannot be borrowed; clone it before the move",
		SemaBorrowConflict:         "a mutable borrow is exclusive: end the other borrow first, or take shared borrows only",
		SemaBorrowImmutable:        "declare the binding mutable to take a mutable borrow of it",
		SemaAssignWhileBorrowed:    "the borrow must end before the value is assigned",
		SemaDanglingReference:      "move the data to an outer scope, clone it, or use an owned type instead of a reference",
		SemaReturnLocalRef:         "return an owned value, or take the value as a parameter with a region annotation",
		SemaRegionElisionAmbiguous: "add an explicit region parameter to the return type, e.g. -> &'a T",
		SemaRegionOutlivesStatic:   "use 'static instead of the named region, or remove the 'static requirement",
		SemaRegionTooShort:         "the reference must not outlive the data it refers to",
		SemaRegionUndeclared:       "declare the region in the function's region parameters, e.g. fn f<'a>(x: &'a T)",
		IOFormatVersion:            "regenerate the unit with a front end that emits format 1.x",
	}
)

// ID returns the stable identifier, e.g. SEM3101.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// Help returns remediation advice, or "" when the code has none.
func (c Code) Help() string {
	return codeHelp[c]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ParseCode accepts either the numeric form ("3101") or the ID form ("SEM3101").
func ParseCode(s string) (Code, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for code := range codeDescription {
		if code == UnknownCode {
			continue
		}
		if code.ID() == s || strconv.Itoa(int(code)) == s {
			return code, true
		}
	}
	return UnknownCode, false
}

// Codes lists every known code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for code := range codeDescription {
		if code != UnknownCode {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}
