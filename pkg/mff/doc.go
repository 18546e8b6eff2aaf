// Package mff implements the Mempool File Format: a compact, reference
// compressed event log of mempool arrivals, departures and block
// confirmations for a Bitcoin-like node, plus the replayer that turns the
// log back into delegate callbacks.
package mff
