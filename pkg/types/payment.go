package types

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderApple  PaymentProvider = "apple"
	PaymentProviderGoogle PaymentProvider = "google"
	// PaymentProviderInner marks upgrades granted by operators.
	PaymentProviderInner PaymentProvider = "inner"
)

func (p PaymentProvider) Valid() bool {
	switch p {
	case PaymentProviderStripe, PaymentProviderApple, PaymentProviderGoogle, PaymentProviderInner:
		return true
	}
	return false
}
