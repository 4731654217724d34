// Package reembed regenerates the vectors of every stored chunk, typically
// after switching embedding models. The vector index must be reloaded from
// the store once a run completes.
package reembed
