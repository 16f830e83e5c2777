package models

// Portfolio represents a Prime portfolio
type Portfolio struct {
	Id   string
	Name string
}

// Wallet represents a Prime wallet
type Wallet struct {
	Id     string
	Name   string
	Symbol string
	Type   string
}

// PrimeAddress is a deposit address generated on a Prime wallet
type PrimeAddress struct {
	AccountIdentifier string
	Address           string
	Network           string
	Asset             string
	WalletId          string
}
