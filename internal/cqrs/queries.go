package cqrs

// GetPurchaseQuery fetches a single purchase, scoped to the owning account.
type GetPurchaseQuery struct {
	PurchaseID string
	AccountID  int64
}

// ListPurchasesQuery fetches every purchase of an account together with the
// current month's spend.
type ListPurchasesQuery struct {
	AccountID int64
}
