package models

// DiscountValidation is the outcome of checking a code against the ledger.
type DiscountValidation struct {
	Valid    bool          `json:"valid"`
	Discount *DiscountCode `json:"-"`
	Message  string        `json:"message"`
}

// DiscountPreview is returned by the apply-discount endpoint.
type DiscountPreview struct {
	Code          string `json:"code"`
	DiscountValue int64  `json:"discountValue"`
	Subtotal      int64  `json:"subtotal"`
	Tax           int64  `json:"tax"`
	ShippingFee   int64  `json:"shippingFee"`
	GrandTotal    int64  `json:"grandTotal"`
}
