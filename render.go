package kstate

import (
	"fmt"
	"io"
)

// FormatState renders state for diagnostics, matching kstate_print_state's
// output: "State <id> on '<name>' for <permissions>", or
// "State <unsubscribed>" if state is not currently subscribed.
func FormatState(state *State) string {
	return state.String()
}

// FormatTransaction renders transaction for diagnostics, matching
// kstate_print_transaction's output.
func FormatTransaction(transaction *Transaction) string {
	return transaction.String()
}

// PrintState writes FormatState(state) to w, optionally preceded by start
// and followed by a newline if eol is true — the same start/eol shape as
// kstate_print_state(stream, start, state, eol).
func PrintState(w io.Writer, start string, state *State, eol bool) {
	if start != "" {
		fmt.Fprint(w, start)
	}
	fmt.Fprint(w, FormatState(state))
	if eol {
		fmt.Fprintln(w)
	}
}

// PrintTransaction writes FormatTransaction(transaction) to w, with the
// same start/eol shape as kstate_print_transaction.
func PrintTransaction(w io.Writer, start string, transaction *Transaction, eol bool) {
	if start != "" {
		fmt.Fprint(w, start)
	}
	fmt.Fprint(w, FormatTransaction(transaction))
	if eol {
		fmt.Fprintln(w)
	}
}
