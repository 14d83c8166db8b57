package domain

import "math/big"

// TxKind selects one of the three explorer transaction streams.
type TxKind string

const (
	TxNormal   TxKind = "normal"
	TxInternal TxKind = "internal"
	TxToken    TxKind = "token"
)

// Transaction is one row of an explorer transaction list.
// Addresses are lowercase. Value is in native minor units (wei) and is
// zero for token transfers.
type Transaction struct {
	Kind            TxKind
	Hash            string
	BlockNumber     uint64
	Timestamp       int64 // Unix seconds
	From            string
	To              string // empty for contract creation
	Value           *big.Int
	Input           string
	ContractAddress string // set on contract creation
	TokenSymbol     string // token stream only
	IsError         bool
}

// IsContractCreation reports whether the transaction deployed a contract.
func (t Transaction) IsContractCreation() bool {
	return t.To == "" && t.ContractAddress != ""
}

// CreationRecord identifies who deployed a contract and in which transaction.
type CreationRecord struct {
	Deployer string
	TxHash   string
}
