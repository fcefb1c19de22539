package domain

import "strings"

const (
	NullAddress Address = "0x0000000000000000000000000000000000000000"
	NativeAsset Asset   = "native"
)

// Address identifies a caller or beneficiary. Comparison is case-insensitive
// for hex addresses, so values are normalized before use.
type Address string

func NewAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

func (a Address) IsNull() bool {
	return a == "" || a == NullAddress
}

func (a Address) String() string {
	return string(a)
}

// Asset identifies a fungible value kind. NativeAsset is the sentinel for the
// chain-native asset.
type Asset string

func NewAsset(s string) Asset {
	return Asset(strings.ToLower(strings.TrimSpace(s)))
}

func (a Asset) IsNative() bool {
	return a == NativeAsset
}

func (a Asset) String() string {
	return string(a)
}
