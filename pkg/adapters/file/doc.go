// Package file provides line-oriented file transports and a stdout output.
//
// Input follows the file like a tail: lines appended by another process after
// Open are picked up on the next HasData call.
package file
