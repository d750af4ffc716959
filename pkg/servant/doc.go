/*
Package servant implements the per-disk monitoring child (SVT): the
process an inquisitor forks once per configured disk, first in
prepare-only mode during startup validation and then in full-job mode for
the steady-state monitoring loop.

A servant never signals its parent with a raw OS signal for anything that
carries meaning beyond "which signal number fired" — see package ipc for
why. It always holds exactly one open disk and one allocated slot; no
servant shares a slot, and no servant looks at any slot but its own.
*/
package servant
