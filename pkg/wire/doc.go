/*
Package wire groups the two serial protocols spoken by an emulated device.

  - text: tab separated key/value blocks closed by a "Checksum" byte that makes the
    byte sum of the block zero modulo 256.
  - hex: ASCII frames of the form ":<command><payload><checksum>\n" whose decoded
    bytes sum to 0x55 modulo 256.

Both subpackages are pure functions over bytes and strings; neither knows about
scenarios or transports.
*/
package wire
