package model

import "strings"

// PaymentMethodAsset returns the asset code of a payment method identifier.
// Identifiers follow the "ASSET-Variant" form, e.g. "BTC-OnChain" or
// "BTC-LightningNetwork"; an identifier without a variant is its own asset.
func PaymentMethodAsset(paymentMethodID string) string {
	if i := strings.IndexByte(paymentMethodID, '-'); i >= 0 {
		return paymentMethodID[:i]
	}

	return paymentMethodID
}
