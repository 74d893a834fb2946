//go:build darwin && !cgo
// +build darwin,!cgo

// File: affinity/pin_darwin_nocgo.go
// Author: momentics <momentics@gmail.com>
//
// Without cgo the Mach thread policy API is out of reach.

package affinity

func pinCurrentThread(int) bool { return false }
