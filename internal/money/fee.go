package money

// FeePolicy splits a charged amount between the platform and the creator.
// Rates are basis points of the charged amount kept by the platform.
type FeePolicy struct {
	Name         string
	PlatformRate int64
}

var (
	// SessionFee applies to booked streaming sessions.
	SessionFee = FeePolicy{Name: "session", PlatformRate: 1000}
	// SubscriptionFee applies to recurring subscriptions. Not interchangeable with SessionFee.
	SubscriptionFee = FeePolicy{Name: "subscription", PlatformRate: 2000}
)

type Split struct {
	Charged         Money `json:"charged"`
	PlatformFee     Money `json:"platform_fee"`
	CreatorEarnings Money `json:"creator_earnings"`
}

// Split rounds the platform share and leaves the remainder to the creator, so
// PlatformFee + CreatorEarnings always equals Charged.
func (p FeePolicy) Split(charged Money) Split {
	fee := charged.MulRate(p.PlatformRate)
	return Split{
		Charged:         charged,
		PlatformFee:     fee,
		CreatorEarnings: charged.Sub(fee),
	}
}
