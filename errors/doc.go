/*
Package errors implements the error taxonomy shared by all quorum packages.

Each error kind is a root error created once with Register, carrying a unique
code. Runtime errors wrap one of the root errors using Wrap or Wrapf (or the
New and Newf shortcuts) so that callers can test for the kind using Is,
regardless of how many layers of context were added:

	if multisign.ErrAlreadyExecuted.Is(err) {
		...
	}

Generic kinds are declared in this package. Extensions declare their own kinds
in their errors.go file, using a code range that no other package uses.

The innermost wrap attaches a stack trace. Use fmt verbs to see it:
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
