// Package text implements the key/value block format of the text protocol.
package text
