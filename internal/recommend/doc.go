// Package recommend answers the presentation layer's read-side questions
// about a ledger: the adjusted daily goal and progress, the trailing 7-day
// series, and a motivational suggestion.
//
// Every function is a pure computation over a Source and a supplied "now";
// nothing here mutates state.
package recommend
