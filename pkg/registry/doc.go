/*
Package registry is the ordered identity -> bookkeeping-record mapping that
backs registration, inbox lookup, and the update loop's flush pass.

It deliberately does not use a third-party ordered-map package — an ordered
slice of identities next to a plain map gives the same "totally ordered,
keyed by identity" behavior, matching this codebase's preference for stdlib
containers over external ones where stdlib suffices.
*/
package registry
