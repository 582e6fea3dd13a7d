// internal/domain/models/deployment.go
package models

// Address is a deployed contract address as returned by the deploy driver.
// It is treated as an opaque identifier outside the driver.
type Address string

func (a Address) String() string { return string(a) }

// DeploymentRecord tags one deployed contract instance.
type DeploymentRecord struct {
	ContractLabel   string `bson:"contract_label" json:"contract_label"`
	ContractVersion string `bson:"contract_version" json:"contract_version"`
	AddressLabel    string `bson:"address_label" json:"address_label"`
}

// Receipt summarizes a mined transaction.
type Receipt struct {
	TxHash      string `bson:"tx_hash" json:"tx_hash"`
	BlockNumber uint64 `bson:"block_number" json:"block_number"`
	GasUsed     uint64 `bson:"gas_used" json:"gas_used"`
}
