// Package namecase converts Simplified Chinese names in the converted
// tree to Traditional Chinese (Taiwan standard). Names are normalized to
// NFC before conversion so visually identical names share one spelling.
package namecase
