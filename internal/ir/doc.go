// Package ir provides the canonical value representation used to digest
// tables and run reports.
//
// Values are a small sealed set (null, string, int, float, bool, array,
// object). Their canonical JSON form sorts object keys by UTF-16 code units,
// NFC-normalizes strings and prints floats in shortest round-trip form, so
// equal values always produce equal bytes and equal digests.
//
// ir imports nothing internal.
package ir
