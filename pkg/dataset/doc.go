/*
Package dataset defines the closed vocabulary shared by every other package
in this module: the eight dataset Kinds, the Identity values that name a
dataset, the closed Update union applied to a dataset's inbox, and the
immutable Snapshot each kind materializes into.

Nothing in this package touches storage, channels, or atomics — it is the
vocabulary, not the engine.
*/
package dataset
