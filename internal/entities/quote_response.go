package entities

import "streambook/internal/money"

type QuoteResponse struct {
	ProviderID       string      `json:"provider_id"`
	DurationMinutes  int         `json:"duration_minutes"`
	Price            money.Money `json:"price"`
	PlatformFee      money.Money `json:"platform_fee"`
	ProviderEarnings money.Money `json:"provider_earnings"`
}
