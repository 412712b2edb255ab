// Package chatid derives the shared conversation identifier for a pair of
// participants. Both clients compute the same id regardless of who opens the
// chat, which is what makes the conversation row a singleton per pair.
package chatid

const separator = "_"

// Resolve returns the conversation id for the unordered pair (a, b):
// the two ids sorted lexicographically and joined with an underscore.
// Resolve(a, b) == Resolve(b, a) for all inputs. Pure function; validation
// of the ids themselves (empty, self-chat) happens at the service boundary.
func Resolve(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + separator + b
}
