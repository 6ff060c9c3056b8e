// Package timeexpr parses, evaluates, and renders timestamp expressions used
// when editing markers.
//
// An expression is either a plain timestamp ("5000", "1:30", "1:02:03.5") or
// an advanced expression introduced by '=' that may carry a marker type tag,
// a single marker or chapter reference, and any number of signed offsets:
//
//	=I1S+2:00        start of the first intro marker plus two minutes
//	=C-1E-500        end of the last credits marker minus half a second
//	=Ch(Opening*)    chapter whose name starts with "Opening"
//	=Ch(/^part \d/i) chapter matched by a literal regular expression
//	=A@5:00          create an ad marker starting at five minutes
//
// Parsing produces a ParseState. References are resolved against the
// markers and chapters bound to the Expression with Bind; without bound
// media, Evaluate reports ErrNeedsMedia instead of failing so callers can
// tell "cannot compute yet" apart from "invalid".
//
// When S or E is omitted, chapter references default to the same side as
// the input (start inputs read the chapter start) while marker references
// default to the opposite side (start inputs read the marker end).
//
// An Expression is owned by a single input and is not safe for concurrent
// use. Parse results are cloned before being handed out.
package timeexpr
