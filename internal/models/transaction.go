package models

// ResourceType identifies a transaction collection on the accounting provider
type ResourceType string

const (
	ResourceTypeInvoice         ResourceType = "Invoice"
	ResourceTypeBankTransaction ResourceType = "BankTransaction"
	ResourceTypeReceipt         ResourceType = "Receipt"
	ResourceTypePurchaseOrder   ResourceType = "PurchaseOrder"
)

// AllResourceTypes lists every collection scanned during a detection run
var AllResourceTypes = []ResourceType{
	ResourceTypeInvoice,
	ResourceTypeBankTransaction,
	ResourceTypeReceipt,
	ResourceTypePurchaseOrder,
}

// Transaction is a read-through snapshot of a provider transaction.
// It is fetched fresh on every run and never persisted.
type Transaction struct {
	ID               string       `json:"id"`
	Type             ResourceType `json:"type"`
	CounterpartyName string       `json:"counterparty_name"`
	Currency         string       `json:"currency"`
	Total            float64      `json:"total"`
	Tax              float64      `json:"tax"`
	SubTotal         float64      `json:"sub_total"`
	HasAttachment    bool         `json:"has_attachment"`
}

// RiskLevel classifies a transaction's compliance exposure
type RiskLevel string

const (
	RiskLevelHigh RiskLevel = "HIGH"
	RiskLevelLow  RiskLevel = "LOW"
)

// RiskAssessment is derived from a transaction and a threshold.
// Computed fresh each run; never persisted independently.
type RiskAssessment struct {
	Currency         string    `json:"currency"`
	RiskLevel        RiskLevel `json:"risk_level"`
	Total            float64   `json:"total"`
	Tax              float64   `json:"tax"`
	SubTotal         float64   `json:"sub_total"`
	PotentialPenalty float64   `json:"potential_penalty"`
	ExceedsThreshold bool      `json:"exceeds_threshold"`
}

// FlaggedTransaction pairs a transaction missing an attachment with its risk data
type FlaggedTransaction struct {
	Transaction Transaction    `json:"transaction"`
	Risk        RiskAssessment `json:"risk"`
}
