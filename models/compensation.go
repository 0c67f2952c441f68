package models

// Plaintext compensation payloads. These structures exist only on the
// client, before encryption: they are serialized to JSON, encrypted
// with the device key, and stored as an opaque [EncryptedPayload]. The
// server never sees any of these fields.

// SalaryData is the decrypted payload of a salary record.
type SalaryData struct {
	// Amount is the gross amount per pay period, in minor currency
	// units (cents).
	Amount int64 `json:"amount"`

	// PeriodStart and PeriodEnd bound the period the salary applies to,
	// in RFC 3339 date form ("2026-01-01").
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd,omitempty"`

	// Company is the paying employer.
	Company string `json:"company"`

	// Title is the job title at the time of the entry.
	Title string `json:"title,omitempty"`

	// Notes is free-form text.
	Notes string `json:"notes,omitempty"`
}

// BonusData is the decrypted payload of a bonus record.
type BonusData struct {
	// Amount is the bonus amount in minor currency units.
	Amount int64 `json:"amount"`

	// AwardedAt is the award date in RFC 3339 date form.
	AwardedAt string `json:"awardedAt"`

	// Reason describes why the bonus was granted (performance, signing,
	// retention, ...).
	Reason string `json:"reason,omitempty"`

	Company string `json:"company"`
}

// EquityData is the decrypted payload of an equity grant record.
type EquityData struct {
	// Shares is the number of units granted.
	Shares int64 `json:"shares"`

	// GrantDate is the grant date in RFC 3339 date form.
	GrantDate string `json:"grantDate"`

	// VestingMonths is the total vesting schedule length.
	VestingMonths int `json:"vestingMonths,omitempty"`

	// StrikePrice is the per-share strike price in minor currency units.
	// Zero for RSUs.
	StrikePrice int64 `json:"strikePrice,omitempty"`

	Company string `json:"company"`
}
